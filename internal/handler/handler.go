// Package handler wires Telegram updates into the dialogue engine.
package handler

import (
	"github.com/go-telegram/bot"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/service"
)

// Handler holds the dependencies the command and message handlers need.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	sessions *service.SessionService
}

// Deps contains everything required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Sessions *service.SessionService
}

// New creates a Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		sessions: deps.Sessions,
	}
}
