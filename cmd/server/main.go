package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	loanpilot "github.com/nivaan/loanpilot"
	"github.com/nivaan/loanpilot/internal/api"
	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/engine"
	"github.com/nivaan/loanpilot/internal/repository"
	"github.com/nivaan/loanpilot/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.RunMigrations(cfg.DatabaseURL, loanpilot.MigrationsFS()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	warehouse := repository.NewWarehouse(pool)
	llm := service.NewLLMService(cfg.OpenRouterKey, cfg.LLMModel)
	retriever := service.NewRetrievalService(cfg.RetrievalURL, time.Duration(cfg.RetrievalTimeoutSec)*time.Second)
	notifier := service.NewMailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPass)

	eng := engine.New(engine.Deps{
		LLM:        llm,
		Retriever:  retriever,
		Notifier:   notifier,
		LLMTimeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	sessions := service.NewSessionService(eng, warehouse)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewServer(sessions).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("home loan assistant server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
