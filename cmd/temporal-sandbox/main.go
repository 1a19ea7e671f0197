package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "temporal-sandbox",
		Short:         "HTTP front end and worker for the Temporal example workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a YAML config file (environment variables use the SANDBOX_ prefix)")

	rootCmd.AddCommand(
		newServeCmd(&cfgPath),
		newWorkerCmd(&cfgPath),
		newCleanupCmd(&cfgPath),
	)
	return rootCmd
}
