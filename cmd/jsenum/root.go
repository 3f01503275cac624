package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jsenum",
		Short: "Crawl a site and find secrets in its JavaScript",
		Long: `jsenum crawls a website starting from a seed URL, follows same-origin links
up to a depth limit and scans every script asset for credential-shaped strings
such as API keys.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (default: config.yaml|json in cwd or $XDG_CONFIG_HOME/jsenum)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewPatternsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
