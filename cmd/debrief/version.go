package main

import (
	"fmt"

	"github.com/aretw0/debrief"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of debrief",
	// Skips config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("debrief version %s\n", debrief.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
