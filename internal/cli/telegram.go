package cli

import (
	"context"

	"github.com/aretw0/debrief/internal/config"
	"github.com/aretw0/debrief/pkg/adapters/telegram"
)

// NewTelegramAdapter builds the chat adapter for bot from the telegram settings.
func NewTelegramAdapter(app *App, cfg config.TelegramConfig, bot telegram.Bot) (*telegram.Adapter, error) {
	return telegram.New(app.Coach, bot,
		telegram.WithAllow(cfg.Allow...),
		telegram.WithReminder(cfg.Reminder),
		telegram.WithLogger(app.Logger),
	)
}

// RunTelegram connects to the Bot API and relays chats until ctx is cancelled.
func RunTelegram(ctx context.Context, app *App, cfg config.TelegramConfig) error {
	bot, err := telegram.NewBot(cfg.Token)
	if err != nil {
		return err
	}
	adapter, err := NewTelegramAdapter(app, cfg, bot)
	if err != nil {
		return err
	}
	return adapter.Run(ctx)
}
