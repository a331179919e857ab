package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/audit-service/internal/analyzer"
	"github.com/user/audit-service/internal/recommend"
	"github.com/user/audit-service/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Run the heuristic analyzer on a local HTML file",
		Long: `Analyze reads HTML from a file, or from stdin when the argument is "-",
and prints the heuristic signals together with the rule-based web score.
No network access is performed.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
}

type analyzeOutput struct {
	WebScore   int `json:"webScore" yaml:"webScore"`
	Heuristics any `json:"heuristics" yaml:"heuristics"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}

	var src io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	markup, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	h, err := analyzer.Analyze(string(markup))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	score := recommend.WebScore(h)

	switch format {
	case report.FormatYAML:
		// round-trip through JSON to keep the camelCase field names
		data, err := json.Marshal(h)
		if err != nil {
			return err
		}
		var generic map[string]any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		if err := enc.Encode(analyzeOutput{WebScore: score, Heuristics: generic}); err != nil {
			return err
		}
		return enc.Close()
	case report.FormatMarkdown:
		_, err := fmt.Fprintf(out, "Web score: %d / 100\n\nImages missing alt: %d\nVague link texts: %d\nMeta description: %t\n",
			score, h.Accessibility.ImagesMissingAlt, h.Links.VagueLinkTexts, h.SEO.MetaDescriptionPresent)
		return err
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzeOutput{WebScore: score, Heuristics: h})
	}
}
