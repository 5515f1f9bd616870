package feature

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"langid/internal/model/token"
	"langid/internal/service/tokenizer"
	"langid/internal/service/vocabulary"
)

// ErrNoVocabulary is returned by feature extraction before a vocabulary is
// installed
var ErrNoVocabulary = errors.New("no vocabulary loaded")

// FeatureService serves tokenization and feature extraction against the
// currently installed vocabulary
type FeatureService struct {
	tokenizer   tokenizer.Tokenizer
	persistence *vocabulary.Persistence
	vocab       *vocabulary.Vocabulary
	vocabName   string
	logger      *zap.Logger
	mu          sync.RWMutex
}

// TokenizeResult is the rendered token stream of one input
type TokenizeResult struct {
	Tokens []string `json:"tokens"`
	Terms  []string `json:"terms"`
	Count  int      `json:"count"`
}

// FeaturesResult is the feature map of one input
type FeaturesResult struct {
	Sample  *vocabulary.Sample `json:"sample"`
	Present []int              `json:"present"` // Attribute indices set in Sample
	Schema  int                `json:"schema_size"`
}

func NewFeatureService(tok tokenizer.Tokenizer, persistence *vocabulary.Persistence, logger *zap.Logger) *FeatureService {
	if tok == nil {
		tok = tokenizer.NewGeneric()
	}
	return &FeatureService{
		tokenizer:   tok,
		persistence: persistence,
		logger:      logger,
	}
}

// LoadVocabulary reads a saved vocabulary and installs it
func (fs *FeatureService) LoadVocabulary(name string) error {
	if fs.persistence == nil {
		return fmt.Errorf("no vocabulary storage configured")
	}
	v, err := fs.persistence.Load(name, fs.tokenizer)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary %s: %w", name, err)
	}
	return fs.SetVocabulary(v, name)
}

// SetVocabulary installs a finalized vocabulary
func (fs *FeatureService) SetVocabulary(v *vocabulary.Vocabulary, name string) error {
	if v == nil || v.Phase() != vocabulary.Finalized {
		return fmt.Errorf("%w: only a finalized vocabulary can be served", vocabulary.ErrInvalidState)
	}

	fs.mu.Lock()
	fs.vocab = v
	fs.vocabName = name
	fs.mu.Unlock()

	fs.logger.Info("Vocabulary installed", zap.String("name", name), zap.Int("terms", v.Size()))
	return nil
}

// Vocabulary returns the installed vocabulary and its name
func (fs *FeatureService) Vocabulary() (*vocabulary.Vocabulary, string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.vocab == nil {
		return nil, "", ErrNoVocabulary
	}
	return fs.vocab, fs.vocabName, nil
}

// Tokenize runs the tokenizer over source
func (fs *FeatureService) Tokenize(ctx context.Context, source []byte) (*TokenizeResult, error) {
	tokens, err := fs.tokenizer.Tokenize(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}
	return newTokenizeResult(tokens), nil
}

// Features builds the feature map of source over the installed vocabulary
func (fs *FeatureService) Features(ctx context.Context, source []byte, language string) (*FeaturesResult, error) {
	v, _, err := fs.Vocabulary()
	if err != nil {
		return nil, err
	}

	tokens, err := fs.tokenizer.Tokenize(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	sample, err := v.ToSample(tokens, language)
	if err != nil {
		return nil, err
	}

	present := make([]int, 0, len(sample.Attributes))
	for term := range sample.Attributes {
		if i, ok := v.Index(term); ok {
			present = append(present, i)
		}
	}
	sort.Ints(present)

	return &FeaturesResult{
		Sample:  sample,
		Present: present,
		Schema:  v.Size(),
	}, nil
}

func newTokenizeResult(tokens token.Sequence) *TokenizeResult {
	return &TokenizeResult{
		Tokens: tokens.Strings(),
		Terms:  tokens.Terms(),
		Count:  len(tokens),
	}
}
