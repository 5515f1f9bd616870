package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"langid/internal/model/token"
	"langid/internal/service/tokenizer"
)

// ErrInvalidState is returned when an operation is called in the wrong phase
var ErrInvalidState = errors.New("invalid vocabulary state")

// Phase is the lifecycle stage of a Vocabulary
type Phase int

const (
	Accumulating Phase = iota // Add and Merge allowed
	Pruned                    // Rare terms removed, waiting for Finish
	Finalized                 // Ordered term list fixed, read-only
)

func (p Phase) String() string {
	switch p {
	case Accumulating:
		return "accumulating"
	case Pruned:
		return "pruned"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Vocabulary aggregates terms over labeled samples and turns inputs into
// presence feature maps once finalized. Counts are per sample: a term seen
// many times in one sample counts once.
type Vocabulary struct {
	phase        Phase
	counts       map[string]int64            // term -> samples containing it
	perLanguage  map[string]map[string]int64 // language -> term -> samples containing it
	languages    map[string]int64            // language -> samples added
	samples      int64
	minFrequency int64
	words        []string       // finalized order, ascending by count
	index        map[string]int // term -> position in words
	tokenizer    tokenizer.Tokenizer
	logger       *zap.Logger
	mu           sync.RWMutex
}

// Stats describes the current state of a vocabulary
type Stats struct {
	Phase        string           `json:"phase"`
	Terms        int              `json:"terms"`
	Samples      int64            `json:"samples"`
	Languages    map[string]int64 `json:"languages"`
	MinFrequency int64            `json:"min_frequency"`
}

// New creates an empty accumulating vocabulary. tok is used for the *Source
// variants that accept raw text; nil selects the generic tokenizer.
func New(tok tokenizer.Tokenizer, logger *zap.Logger) *Vocabulary {
	if tok == nil {
		tok = tokenizer.NewGeneric()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vocabulary{
		phase:       Accumulating,
		counts:      make(map[string]int64),
		perLanguage: make(map[string]map[string]int64),
		languages:   make(map[string]int64),
		tokenizer:   tok,
		logger:      logger,
	}
}

// Phase returns the current lifecycle phase
func (v *Vocabulary) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

// Add counts every distinct term of tokens once for language
func (v *Vocabulary) Add(tokens token.Sequence, language string) error {
	return v.AddTerms(tokens.Terms(), language)
}

// AddSource tokenizes source and adds it for language
func (v *Vocabulary) AddSource(ctx context.Context, source []byte, language string) error {
	tokens, err := v.tokenizer.Tokenize(ctx, source)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	return v.Add(tokens, language)
}

// AddTerms counts every distinct term once for language
func (v *Vocabulary) AddTerms(terms []string, language string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requirePhase("add", Accumulating); err != nil {
		return err
	}

	langCounts, ok := v.perLanguage[language]
	if !ok {
		langCounts = make(map[string]int64)
		v.perLanguage[language] = langCounts
	}

	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		v.counts[term]++
		langCounts[term]++
	}

	v.languages[language]++
	v.samples++
	return nil
}

// Merge adds the counters of other into v. Both vocabularies must be
// accumulating; other is left unchanged. Merging partial vocabularies built
// in any partition of the corpus gives the same result as adding every
// sample to one vocabulary.
func (v *Vocabulary) Merge(other *Vocabulary) error {
	if other == nil {
		return nil
	}
	if other == v {
		return fmt.Errorf("%w: cannot merge a vocabulary into itself", ErrInvalidState)
	}

	// other is copied under its own lock first, so the two locks are never
	// held together and opposite merges cannot deadlock
	src, err := other.copyCounters()
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requirePhase("merge", Accumulating); err != nil {
		return err
	}

	for term, count := range src.counts {
		v.counts[term] += count
	}
	for language, terms := range src.perLanguage {
		langCounts, ok := v.perLanguage[language]
		if !ok {
			langCounts = make(map[string]int64, len(terms))
			v.perLanguage[language] = langCounts
		}
		for term, count := range terms {
			langCounts[term] += count
		}
	}
	for language, n := range src.languages {
		v.languages[language] += n
	}
	v.samples += src.samples

	return nil
}

// counters is a detached copy of the accumulated state of a vocabulary
type counters struct {
	counts      map[string]int64
	perLanguage map[string]map[string]int64
	languages   map[string]int64
	samples     int64
}

func (v *Vocabulary) copyCounters() (*counters, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.phase != Accumulating {
		return nil, fmt.Errorf("%w: merge source is %s, expected %s", ErrInvalidState, v.phase, Accumulating)
	}

	c := &counters{
		counts:      make(map[string]int64, len(v.counts)),
		perLanguage: make(map[string]map[string]int64, len(v.perLanguage)),
		languages:   make(map[string]int64, len(v.languages)),
		samples:     v.samples,
	}
	for term, count := range v.counts {
		c.counts[term] = count
	}
	for language, terms := range v.perLanguage {
		langCounts := make(map[string]int64, len(terms))
		for term, count := range terms {
			langCounts[term] = count
		}
		c.perLanguage[language] = langCounts
	}
	for language, n := range v.languages {
		c.languages[language] = n
	}
	return c, nil
}

// Prune removes every term whose count never reaches minFrequency within a
// single language. It returns the number of removed terms.
func (v *Vocabulary) Prune(minFrequency int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requirePhase("prune", Accumulating); err != nil {
		return 0, err
	}

	valid := make(map[string]struct{}, len(v.counts))
	for _, terms := range v.perLanguage {
		for term, count := range terms {
			if count >= minFrequency {
				valid[term] = struct{}{}
			}
		}
	}

	before := len(v.counts)
	for term := range v.counts {
		if _, ok := valid[term]; !ok {
			delete(v.counts, term)
		}
	}

	v.minFrequency = minFrequency
	v.phase = Pruned

	removed := before - len(v.counts)
	v.logger.Info("Pruned vocabulary",
		zap.Int("before", before),
		zap.Int("after", len(v.counts)),
		zap.Int("removed", removed),
		zap.Int64("min_frequency", minFrequency),
	)

	return removed, nil
}

// Finish fixes the surviving terms into their final order and drops the
// per-language tables. It is a one-way transition.
func (v *Vocabulary) Finish() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requirePhase("finish", Pruned); err != nil {
		return err
	}

	words := make([]string, 0, len(v.counts))
	for term := range v.counts {
		words = append(words, term)
	}
	sort.Slice(words, func(i, j int) bool {
		ci, cj := v.counts[words[i]], v.counts[words[j]]
		if ci != cj {
			return ci < cj
		}
		return words[i] < words[j]
	})

	v.setWords(words)
	v.perLanguage = nil
	v.phase = Finalized

	v.logger.Info("Finalized vocabulary", zap.Int("terms", len(words)))
	return nil
}

// setWords installs the finalized order. Caller holds the write lock.
func (v *Vocabulary) setWords(words []string) {
	v.words = words
	v.index = make(map[string]int, len(words))
	for i, term := range words {
		v.index[term] = i
	}
}

// Words returns the finalized ordered term list, the attribute schema for
// the classifier
func (v *Vocabulary) Words() ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := v.requirePhase("words", Finalized); err != nil {
		return nil, err
	}
	words := make([]string, len(v.words))
	copy(words, v.words)
	return words, nil
}

// Index returns the attribute position of term in a finalized vocabulary
func (v *Vocabulary) Index(term string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.phase != Finalized {
		return 0, false
	}
	i, ok := v.index[term]
	return i, ok
}

// Counts returns a copy of the global term counts
func (v *Vocabulary) Counts() map[string]int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	counts := make(map[string]int64, len(v.counts))
	for term, count := range v.counts {
		counts[term] = count
	}
	return counts
}

// LanguageCount returns how many samples of language contained term. Only
// available before Finish.
func (v *Vocabulary) LanguageCount(language, term string) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.phase == Finalized {
		return 0, fmt.Errorf("%w: per-language counts are discarded once %s", ErrInvalidState, Finalized)
	}
	return v.perLanguage[language][term], nil
}

// Size returns the number of terms currently held
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.counts)
}

// ToSample builds the presence feature map of tokens over the finalized
// vocabulary. Terms outside the vocabulary are dropped.
func (v *Vocabulary) ToSample(tokens token.Sequence, language string) (*Sample, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := v.requirePhase("to sample", Finalized); err != nil {
		return nil, err
	}

	sample := NewSample(language)
	for _, term := range tokens.Terms() {
		if _, ok := v.index[term]; ok {
			sample.Attributes[term] = 1
		}
	}
	return sample, nil
}

// ToSampleSource tokenizes source and builds its feature map
func (v *Vocabulary) ToSampleSource(ctx context.Context, source []byte, language string) (*Sample, error) {
	tokens, err := v.tokenizer.Tokenize(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}
	return v.ToSample(tokens, language)
}

// Stats returns a summary of the vocabulary
func (v *Vocabulary) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	languages := make(map[string]int64, len(v.languages))
	for language, n := range v.languages {
		languages[language] = n
	}
	return Stats{
		Phase:        v.phase.String(),
		Terms:        len(v.counts),
		Samples:      v.samples,
		Languages:    languages,
		MinFrequency: v.minFrequency,
	}
}

func (v *Vocabulary) requirePhase(op string, want Phase) error {
	if v.phase != want {
		return fmt.Errorf("%w: %s requires %s, vocabulary is %s", ErrInvalidState, op, want, v.phase)
	}
	return nil
}
