package handler

import (
	"github.com/go-telegram/bot"
)

// Register registers the command handlers. Plain text goes through the
// default handler configured in main.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypePrefix, h.handleReset)
}
