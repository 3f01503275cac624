package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/logger"
	"github.com/aleister1102/jsenum/internal/secrets"
	"github.com/spf13/cobra"
)

// NewPatternsCmd creates the patterns command.
func NewPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the secret patterns that a scan would use",
		Args:  cobra.NoArgs,
		RunE:  runPatternsCmd,
	}
	cmd.Flags().StringP("patterns", "p", "", "Pattern file (default from config, then api_patterns.json)")
	return cmd
}

func runPatternsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("patterns"); path != "" {
		cfg.SecretsConfig.PatternsFile = path
	}

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to initialize logger")
	}

	registry := secrets.LoadPatterns(cfg.SecretsConfig.PatternsFile, secrets.RegistryOptions{
		MinLength:        cfg.SecretsConfig.MinLength,
		KeywordPrefilter: cfg.SecretsConfig.EnableKeywordPrefilter,
	}, log)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d patterns (%s)\n\n", registry.Len(), registry.Source())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMIN\tREGEX")
	for _, p := range registry.Patterns() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Name, p.MinLength, p.Source)
	}
	return tw.Flush()
}
