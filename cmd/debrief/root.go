package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/debrief/internal/cli"
	"github.com/aretw0/debrief/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v   = viper.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "debrief",
	Short: "Debrief is an end-of-day reflection coach",
	Long: `Debrief walks you through a short scripted reflection, asks follow-up
questions with a language model and saves a summary of goals and follow-ups.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(v, path)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./debrief.yaml or ~/.config/debrief/debrief.yaml)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("provider", "", "Model provider: openai, ollama, anthropic or scripted")
	flags.String("model", "", "Model name")
	flags.String("script", "", "YAML file overriding the reflection script")
	flags.String("store", "", "Session store: memory, file, redis or sqlite")

	_ = v.BindPFlag("model.provider", flags.Lookup("provider"))
	_ = v.BindPFlag("model.name", flags.Lookup("model"))
	_ = v.BindPFlag("script.path", flags.Lookup("script"))
	_ = v.BindPFlag("store.driver", flags.Lookup("store"))
}

// withApp builds the application from the loaded config, runs fn and releases the app.
// The context passed to fn is cancelled on SIGINT or SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(cfg.Log, debug)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}
