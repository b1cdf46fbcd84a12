package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimit returns middleware that drops messages arriving faster than
// minInterval per chat. Each turn can fan out to the language and retrieval
// collaborators, so a flood of messages is a flood of upstream calls.
func RateLimit(minInterval time.Duration) bot.Middleware {
	var mu sync.Mutex
	last := make(map[int64]time.Time)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message != nil {
				chatID := update.Message.Chat.ID
				now := time.Now()

				mu.Lock()
				prev, seen := last[chatID]
				if seen && now.Sub(prev) < minInterval {
					mu.Unlock()
					return
				}
				last[chatID] = now
				mu.Unlock()
			}
			next(ctx, b, update)
		}
	}
}
