package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/ai"
	"github.com/david/maintenance-analyzer/internal/api"
	"github.com/david/maintenance-analyzer/internal/config"
	"github.com/david/maintenance-analyzer/internal/logging"
	"github.com/david/maintenance-analyzer/internal/metrics"
	"github.com/david/maintenance-analyzer/internal/store"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "maintenance-analyzer")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New(true)
	st := store.New(logger, store.WithRecorder(m))
	for kind, path := range map[vocab.Kind]string{
		vocab.KindFault:    cfg.Vocab.FaultReasonsFile,
		vocab.KindMaterial: cfg.Vocab.MaterialNamesFile,
	} {
		if _, err := st.ImportTermsFile(kind, path); err != nil {
			logger.Fatal("failed to seed vocabulary", zap.String("kind", string(kind)), zap.Error(err))
		}
	}

	gen, err := ai.NewGenerator(cfg.AI, logger)
	if errors.Is(err, ai.ErrNotConfigured) {
		logger.Warn("no AI provider configured, maintenance suggestions disabled")
		gen = nil
	} else if err != nil {
		logger.Fatal("failed to build AI client", zap.Error(err))
	}

	srv := api.NewServer(cfg, st, gen, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.String("ai_provider", cfg.AI.Provider))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
