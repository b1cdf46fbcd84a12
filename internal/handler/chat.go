package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/telegram"
)

const welcomeText = "Hello! I'm your *Home Loan Assistant*.\n\n" +
	"I can help you with:\n" +
	"- *EMI calculation* — say \"calculate my EMI\"\n" +
	"- *Eligibility check* — say \"am I eligible\"\n" +
	"- *Policy questions* — ask anything about home loans\n" +
	"- *Talk to us* — say \"contact me\" for a call-back\n\n" +
	"Use /reset any time to start over."

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	telegram.SendLongMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

func (h *Handler) handleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	chatID := update.Message.Chat.ID
	h.sessions.Reset(sessionID(chatID))
	telegram.SendLongMessage(ctx, b, chatID,
		"Done, we're starting fresh. How can I help you with your home loan?")
}

// HandleText routes every non-command private message through the engine.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	msg := update.Message
	if msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return
	}
	chatID := msg.Chat.ID

	stopTyping := telegram.StartTyping(ctx, b, chatID)
	defer stopTyping()

	turnCtx, cancel := context.WithTimeout(ctx, config.TurnTimeout)
	defer cancel()

	_, segments := h.sessions.HandleTurn(turnCtx, sessionID(chatID), msg.Text)
	telegram.SendSegments(ctx, b, chatID, segments)
}

// sessionID gives each Telegram chat a stable session key so the same
// conversation survives bot restarts at the store level.
func sessionID(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}
