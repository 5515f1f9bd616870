package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"langid/internal/service/tokenizer"
	"langid/internal/service/vocabulary"
	"langid/internal/util"
)

// DefaultMinFrequency is the prune threshold used by the training harness
const DefaultMinFrequency = 2

// Options controls a training run
type Options struct {
	MinFrequency    int64    // Prune threshold
	Workers         int      // Parallel ingestion workers
	Dedupe          bool     // Drop byte-identical samples within a language
	ExpectedSamples uint     // Sizing hint for the approximate duplicate filter
	DedupeFPRate    float64  // Above 0, dedupe with a bloom filter only at this false positive rate
	SkipDirs        []string // Directory names never descended into
	GCThreshold     int64    // Force a GC every N files, 0 disables
}

// DefaultOptions returns the harness defaults
func DefaultOptions() Options {
	return Options{
		MinFrequency: DefaultMinFrequency,
		Workers:      runtime.NumCPU(),
		Dedupe:       true,
	}
}

// Result is the outcome of building a vocabulary over a corpus
type Result struct {
	Vocabulary *vocabulary.Vocabulary
	Samples    []SampleRef // Ingested samples, sorted by path
	Unlabeled  int64       // Files outside any language directory
	Duplicates int64       // Files dropped as duplicates
	Failed     int64       // Files that could not be read or ingested
}

// Trainer builds vocabularies and datasets from a sample corpus laid out as
// <root>/<Language>/<file>
type Trainer struct {
	tokenizer tokenizer.Tokenizer
	opts      Options
	logger    *zap.Logger
}

// NewTrainer creates a trainer. A nil tokenizer selects the generic one.
func NewTrainer(tok tokenizer.Tokenizer, opts Options, logger *zap.Logger) *Trainer {
	if tok == nil {
		tok = tokenizer.NewGeneric()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Trainer{
		tokenizer: tok,
		opts:      opts,
		logger:    logger,
	}
}

// BuildVocabulary ingests every labeled file under root in parallel, merges
// the per-worker vocabularies, prunes and finalizes the result
func (t *Trainer) BuildVocabulary(ctx context.Context, root string) (*Result, error) {
	workers := t.opts.Workers
	partials := make([]*vocabulary.Vocabulary, workers)
	partialRefs := make([][]SampleRef, workers)
	for i := range partials {
		partials[i] = vocabulary.New(t.tokenizer, t.logger)
	}

	var deduper *Deduper
	if t.opts.Dedupe {
		if t.opts.DedupeFPRate > 0 {
			deduper = NewApproximateDeduper(t.opts.ExpectedSamples, t.opts.DedupeFPRate)
		} else {
			deduper = NewDeduper()
		}
	}

	var ingested, unlabeled, failed atomic.Int64

	t.logger.Info("Building vocabulary",
		zap.String("root", root),
		zap.Int("workers", workers),
		zap.Int64("min_frequency", t.opts.MinFrequency),
		zap.Bool("dedupe", t.opts.Dedupe),
		zap.Float64("dedupe_fp_rate", t.opts.DedupeFPRate),
	)

	err := util.WalkDirTree(ctx, root,
		func(worker int, path string) error {
			language, ok := LanguageOf(root, path)
			if !ok {
				unlabeled.Add(1)
				return nil
			}

			source, err := os.ReadFile(path)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("failed to read sample: %w", err)
			}

			if deduper != nil && deduper.Seen(language, source) {
				return nil
			}

			if err := partials[worker].AddSource(ctx, source, language); err != nil {
				failed.Add(1)
				return fmt.Errorf("failed to add sample: %w", err)
			}

			partialRefs[worker] = append(partialRefs[worker], SampleRef{
				Path:      util.ToRelativePath(root, path),
				Language:  language,
				Extension: vocabulary.ExtensionOf(path),
			})

			if n := ingested.Add(1); n%100 == 0 {
				t.logger.Info("Training progress", zap.Int64("samples", n))
			}
			return nil
		},
		skipPath(t.opts.SkipDirs),
		t.logger,
		t.opts.GCThreshold,
		workers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	v := vocabulary.New(t.tokenizer, t.logger)
	var refs []SampleRef
	for i, partial := range partials {
		if err := v.Merge(partial); err != nil {
			return nil, fmt.Errorf("failed to merge worker vocabulary: %w", err)
		}
		refs = append(refs, partialRefs[i]...)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no labeled samples found under %s", root)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })

	if _, err := v.Prune(t.opts.MinFrequency); err != nil {
		return nil, fmt.Errorf("failed to prune vocabulary: %w", err)
	}
	if err := v.Finish(); err != nil {
		return nil, fmt.Errorf("failed to finish vocabulary: %w", err)
	}

	result := &Result{
		Vocabulary: v,
		Samples:    refs,
		Unlabeled:  unlabeled.Load(),
		Failed:     failed.Load(),
	}
	if deduper != nil {
		_, result.Duplicates = deduper.Counts()
	}

	stats := v.Stats()
	t.logger.Info("Vocabulary built",
		zap.Int("samples", len(refs)),
		zap.Int("languages", len(stats.Languages)),
		zap.Int("terms", stats.Terms),
		zap.Int64("unlabeled", result.Unlabeled),
		zap.Int64("duplicates", result.Duplicates),
		zap.Int64("failed", result.Failed),
	)

	return result, nil
}

// BuildDataset converts every sample into a feature row over the finalized
// vocabulary v. Rows keep the order of refs and carry the file extension.
func (t *Trainer) BuildDataset(ctx context.Context, root string, v *vocabulary.Vocabulary, refs []SampleRef) ([]*vocabulary.Sample, error) {
	rows := make([]*vocabulary.Sample, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)

	for i, ref := range refs {
		g.Go(func() error {
			source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref.Path)))
			if err != nil {
				return fmt.Errorf("failed to read sample %s: %w", ref.Path, err)
			}
			row, err := v.ToSampleSource(gctx, source, ref.Language)
			if err != nil {
				return fmt.Errorf("failed to build row for %s: %w", ref.Path, err)
			}
			row.Extension = ref.Extension
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.logger.Info("Dataset built", zap.Int("rows", len(rows)))
	return rows, nil
}

// Train builds the vocabulary and then the dataset for root
func (t *Trainer) Train(ctx context.Context, root string) (*Result, []*vocabulary.Sample, error) {
	result, err := t.BuildVocabulary(ctx, root)
	if err != nil {
		return nil, nil, err
	}
	rows, err := t.BuildDataset(ctx, root, result.Vocabulary, result.Samples)
	if err != nil {
		return nil, nil, err
	}
	return result, rows, nil
}
