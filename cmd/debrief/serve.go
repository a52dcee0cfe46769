package main

import (
	"context"

	"github.com/aretw0/debrief/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes sessions over a JSON API with server-sent events and a WebSocket
per session, plus /healthz and Prometheus /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.Serve(ctx, app, cfg.HTTP.Addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	_ = v.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
}
