package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/user/audit-service/internal/entity"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Writer renders one report.
type Writer interface {
	Write(report *entity.AuditReport) error
}

// ParseFormat accepts json, yaml/yml and markdown/md, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json, yaml or markdown)", s)
	}
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatYAML:
		return NewYAMLWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
