package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"

	loanpilot "github.com/nivaan/loanpilot"
	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/engine"
	"github.com/nivaan/loanpilot/internal/handler"
	"github.com/nivaan/loanpilot/internal/middleware"
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
	if cfg.BotToken == "" {
		slog.Error("BOT_TOKEN is required for the telegram surface")
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

	// Handler pointer for use in the default handler closure.
	var h *handler.Handler

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(time.Second),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	h = handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Sessions: sessions,
	})
	h.Register()

	slog.Info("home loan assistant bot starting")
	b.Start(ctx)
	slog.Info("bot stopped")
}
