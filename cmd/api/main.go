package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "leadscout",
		SilenceUsage: true,
		Short:        "Lead search API, lifecycle worker and tooling",
		Version:      version,
	}

	cmd.PersistentFlags().String("config", "", "optional config file (yaml, toml or json)")

	cmd.AddCommand(
		serveCmd(),
		workerCmd(),
		migrateCmd(),
		searchCmd(),
	)

	return cmd
}
