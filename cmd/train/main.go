package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"langid/internal/config"
	"langid/internal/service/corpus"
	"langid/internal/service/tokenizer"
	"langid/internal/service/vocabulary"
	"langid/internal/util"

	"go.uber.org/zap"
)

func main() {
	var appConfigPath = flag.String("app", "", "Path to app configuration file")
	var corpusDir = flag.String("corpus", "", "Sample corpus laid out as <dir>/<Language>/<file>")
	var workDir = flag.String("workdir", "", "Directory to write the vocabulary to")
	var vocabName = flag.String("vocabulary", "", "Name to save the vocabulary under")
	var datasetPath = flag.String("dataset", "", "Path of the JSON lines dataset to write")
	var minFrequency = flag.Int64("min-frequency", 0, "Prune threshold (per language)")
	var workers = flag.Int("workers", 0, "Parallel ingestion workers")
	flag.Parse()

	cfg, err := config.LoadConfig(*appConfigPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if *corpusDir != "" {
		cfg.Training.CorpusDir = *corpusDir
	}
	if *workDir != "" {
		cfg.App.WorkDir = *workDir
	}
	if *vocabName != "" {
		cfg.App.Vocabulary = *vocabName
	}
	if *datasetPath != "" {
		cfg.Training.DatasetPath = *datasetPath
	} else if *workDir != "" || *vocabName != "" {
		cfg.Training.DatasetPath = filepath.Join(cfg.App.WorkDir, cfg.App.Vocabulary+"_dataset.jsonl")
	}
	if *minFrequency > 0 {
		cfg.Training.MinFrequency = *minFrequency
	}
	if *workers > 0 {
		cfg.Training.Workers = *workers
	}

	logger, err := util.NewLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Training failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	start := time.Now()

	opts := corpus.Options{
		MinFrequency:    cfg.Training.MinFrequency,
		Workers:         cfg.Training.Workers,
		Dedupe:          !cfg.Training.SkipDedupe,
		ExpectedSamples: cfg.Training.ExpectedSamples,
		DedupeFPRate:    cfg.Training.DedupeFPRate,
		SkipDirs:        cfg.Training.SkipDirs,
		GCThreshold:     cfg.Training.GCThreshold,
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}

	trainer := corpus.NewTrainer(tokenizer.NewGeneric(), opts, logger)
	result, rows, err := trainer.Train(ctx, cfg.Training.CorpusDir)
	if err != nil {
		return err
	}

	persistence, err := vocabulary.NewPersistence(cfg.App.WorkDir, logger)
	if err != nil {
		return err
	}
	id, err := persistence.Save(result.Vocabulary, cfg.App.Vocabulary)
	if err != nil {
		return err
	}

	words, err := result.Vocabulary.Words()
	if err != nil {
		return err
	}
	if err := corpus.SaveDataset(cfg.Training.DatasetPath, words, rows); err != nil {
		return err
	}

	logger.Info("Training complete",
		zap.String("corpus", cfg.Training.CorpusDir),
		zap.String("vocabulary", cfg.App.Vocabulary),
		zap.String("snapshot_id", id),
		zap.String("dataset", filepath.Clean(cfg.Training.DatasetPath)),
		zap.Int("terms", len(words)),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
