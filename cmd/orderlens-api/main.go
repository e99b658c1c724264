package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderlens/orderlens/internal/agent"
	"github.com/orderlens/orderlens/internal/analytics"
	"github.com/orderlens/orderlens/internal/api"
	"github.com/orderlens/orderlens/internal/auth"
	"github.com/orderlens/orderlens/internal/compose"
	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/intent"
	"github.com/orderlens/orderlens/internal/llm"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("orderlens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("failed to open orders db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	chatClient, err := llm.New(llm.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize chat client", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:     logger,
		Config:     cfg,
		DB:         db,
		Classifier: intent.NewLLMClassifier(chatClient, cfg.AI.ClassifyTemperature, logger),
		Dispatcher: analytics.NewDispatcher(db, logger),
	}
	if cfg.AI.ComposeEnabled {
		deps.Composer = compose.NewComposer(chatClient, cfg.AI.AnswerTemperature)
	}
	if cfg.AI.AgentEnabled {
		deps.Agent = agent.New(chatClient, db, cfg.AI.AgentMaxSteps, cfg.AI.AgentRowLimit, logger)
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Validator = validator
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
