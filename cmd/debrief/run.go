package main

import (
	"context"

	"github.com/aretw0/debrief/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start or resume a reflection in the terminal",
	Long: `Runs a reflection session in the terminal. Pass --session to resume one;
a new session gets a generated ID that is printed when you leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")

		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunSession(ctx, app, cli.RunOptions{
				SessionID: sessionID,
				Headless:  headless,
				JSON:      jsonMode,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, c := range []*cobra.Command{runCmd, rootCmd} {
		c.Flags().StringP("session", "s", "", "Session ID to start or resume")
		c.Flags().Bool("headless", false, "Plain text IO without banner or styling")
		c.Flags().Bool("json", false, "NDJSON input and output")
	}

	rootCmd.RunE = runCmd.RunE
}
