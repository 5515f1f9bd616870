package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"langid/internal/service/tokenizer"
	"langid/internal/service/vocabulary"
)

// trainedVocabulary returns a finalized vocabulary with the words
// ["end", "def"]: "def" is in three samples, "end" in two
func trainedVocabulary(t *testing.T) *vocabulary.Vocabulary {
	t.Helper()
	ctx := context.Background()
	v := vocabulary.New(tokenizer.NewGeneric(), zap.NewNop())
	for _, src := range []string{"def a\nend", "def b\nend", "def c"} {
		require.NoError(t, v.AddSource(ctx, []byte(src), "Ruby"))
	}
	_, err := v.Prune(2)
	require.NoError(t, err)
	require.NoError(t, v.Finish())
	return v
}

func TestFeatureService_Tokenize(t *testing.T) {
	fs := NewFeatureService(nil, nil, zap.NewNop())

	result, err := fs.Tokenize(context.Background(), []byte("x = 0x1F; x = 0x1F"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "=", "<HEX>", ";", "x", "=", "<HEX>"}, result.Tokens)
	assert.Equal(t, []string{"x", "=", "<HEX>", ";"}, result.Terms)
	assert.Equal(t, 7, result.Count)
}

func TestFeatureService_FeaturesRequiresVocabulary(t *testing.T) {
	fs := NewFeatureService(nil, nil, zap.NewNop())

	_, err := fs.Features(context.Background(), []byte("def"), "Ruby")
	assert.ErrorIs(t, err, ErrNoVocabulary)

	_, _, err = fs.Vocabulary()
	assert.ErrorIs(t, err, ErrNoVocabulary)
}

func TestFeatureService_Features(t *testing.T) {
	fs := NewFeatureService(nil, nil, zap.NewNop())
	require.NoError(t, fs.SetVocabulary(trainedVocabulary(t), "ruby"))

	result, err := fs.Features(context.Background(), []byte("def x\nend\nputs"), "Ruby")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"def": 1, "end": 1}, result.Sample.Attributes)
	assert.Equal(t, "Ruby", result.Sample.Class)
	assert.Equal(t, []int{0, 1}, result.Present)
	assert.Equal(t, 2, result.Schema)

	_, name, err := fs.Vocabulary()
	require.NoError(t, err)
	assert.Equal(t, "ruby", name)
}

func TestFeatureService_RejectsUnfinishedVocabulary(t *testing.T) {
	fs := NewFeatureService(nil, nil, zap.NewNop())
	err := fs.SetVocabulary(vocabulary.New(nil, zap.NewNop()), "raw")
	assert.ErrorIs(t, err, vocabulary.ErrInvalidState)
}

func TestFeatureService_LoadVocabulary(t *testing.T) {
	persistence, err := vocabulary.NewPersistence(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	_, err = persistence.Save(trainedVocabulary(t), "ruby")
	require.NoError(t, err)

	fs := NewFeatureService(nil, persistence, zap.NewNop())
	require.NoError(t, fs.LoadVocabulary("ruby"))
	assert.Error(t, fs.LoadVocabulary("missing"))

	v, _, err := fs.Vocabulary()
	require.NoError(t, err)
	words, err := v.Words()
	require.NoError(t, err)
	assert.Equal(t, []string{"end", "def"}, words)
}
