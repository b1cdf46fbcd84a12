package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL   string `env:"DATABASE_URL,required"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY,required"`

	// Telegram surface (cmd/bot)
	BotToken string `env:"BOT_TOKEN"`

	// HTTP surface (cmd/server)
	Port int `env:"PORT" envDefault:"8080"`

	// Language-understanding collaborator
	LLMModel      string `env:"LLM_MODEL" envDefault:"google/gemini-2.5-flash"`
	LLMTimeoutSec int    `env:"LLM_TIMEOUT_SEC" envDefault:"12"`

	// Retrieval collaborator
	RetrievalURL        string `env:"RETRIEVAL_URL,required"`
	RetrievalTimeoutSec int    `env:"RETRIEVAL_TIMEOUT_SEC" envDefault:"15"`

	// OTP mail
	SMTPHost    string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"587"`
	SenderEmail string `env:"SENDER_EMAIL"`
	SenderPass  string `env:"SENDER_APP_PASSWORD"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
