// Command taskmesh runs the conversational task-routing engine: an HTTP
// server (serve) or an interactive terminal session (chat).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "taskmesh",
		Short:         "Route conversational requests to specialist agents",
		Long:          "taskmesh routes incoming conversational requests to specialist task handlers (document processing, video analysis, general assistance) while preserving per-conversation state across turns.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default taskmesh.yaml in the working directory)")

	rootCmd.AddCommand(
		newServeCmd(&configFile),
		newChatCmd(&configFile),
		newVersionCmd(),
	)
	return rootCmd
}
