package main

import (
	"context"

	"github.com/aretw0/debrief/internal/cli"
	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot",
	Long: `Polls the Telegram Bot API and runs one session per chat.
Set DEBRIEF_TELEGRAM_TOKEN; optionally restrict users with telegram.allow
and schedule reminders with telegram.reminder (cron syntax).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunTelegram(ctx, app, cfg.Telegram)
		})
	},
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().String("reminder", "", "Cron schedule for reflection reminders")
	_ = v.BindPFlag("telegram.reminder", telegramCmd.Flags().Lookup("reminder"))
}
