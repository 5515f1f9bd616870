package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"langid/internal/config"
	"langid/internal/controller"
	"langid/internal/handler"
	"langid/internal/service/feature"
	"langid/internal/service/tokenizer"
	"langid/internal/service/vocabulary"
	"langid/internal/util"
	"langid/pkg/mcp"

	"go.uber.org/zap"
)

func main() {
	var appConfigPath = flag.String("app", "", "Path to app configuration file")
	var workDir = flag.String("workdir", "", "Directory holding saved vocabularies")
	var vocabName = flag.String("vocabulary", "", "Name of the vocabulary to serve")
	flag.Parse()

	cfg, err := config.LoadConfig(*appConfigPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if *workDir != "" {
		cfg.App.WorkDir = *workDir
	}
	if *vocabName != "" {
		cfg.App.Vocabulary = *vocabName
	}

	if err := os.MkdirAll(cfg.App.WorkDir, 0755); err != nil {
		log.Fatal("Failed to create work directory: ", err)
	}

	logger, err := util.NewLogger(cfg.App.LogLevel, filepath.Join(cfg.App.WorkDir, "langid.log"))
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully", zap.Any("config", cfg))

	tok, err := tokenizer.NewCached(tokenizer.NewGeneric(), cfg.Tokenizer.CacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tokenizer", zap.Error(err))
	}

	persistence, err := vocabulary.NewPersistence(cfg.App.WorkDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize vocabulary storage", zap.Error(err))
	}

	featureService := feature.NewFeatureService(tok, persistence, logger)
	if persistence.Exists(cfg.App.Vocabulary) {
		if err := featureService.LoadVocabulary(cfg.App.Vocabulary); err != nil {
			logger.Warn("Failed to load vocabulary, feature extraction disabled", zap.Error(err))
		}
	} else {
		logger.Warn("No saved vocabulary, feature extraction disabled until one is trained",
			zap.String("vocabulary", cfg.App.Vocabulary),
			zap.String("path", persistence.Path(cfg.App.Vocabulary)))
	}

	var mcpServer *mcp.FeatureServer
	if !cfg.MCP.Disabled {
		mcpServer = mcp.NewFeatureServer(featureService, cfg.MCP, logger)
	}

	featureController := controller.NewFeatureController(featureService, logger)
	router := handler.SetupRouter(featureController, mcpServer, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.App.Port), zap.Bool("mcp", mcpServer != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
