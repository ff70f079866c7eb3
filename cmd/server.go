package cmd

import (
	"github.com/spf13/cobra"

	"unifm/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the unifm HTTP server",
	Long:  `Runs the unifm API server, the remote library sync engine and the local streaming proxy.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
