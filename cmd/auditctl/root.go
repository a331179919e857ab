package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for auditctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auditctl",
		Short: "Run UX and SEO heuristic audits from the command line",
		Long: `auditctl fetches a page, runs the heuristic analyzer over it and prints
prioritized recommendations. Set GENAI_API_KEY to use the text-generation
service; otherwise the rule-based recommender is used.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("format", "f", "json", "Output format: json, yaml or markdown")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging to stderr")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
