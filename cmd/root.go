package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unifm/server"
)

var rootCmd = &cobra.Command{
	Use:   "unifm",
	Short: "unifm unifies local and remote music libraries behind one API.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
