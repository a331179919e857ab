package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/audit-service/internal/entity"
)

// BuildPrompt renders the request sent to the text-generation service.
func BuildPrompt(targetURL string, h *entity.HeuristicReport) (string, error) {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode heuristics: %w", err)
	}

	return strings.Join([]string{
		"You are a senior UX consultant and accessibility expert. Analyze this website audit data and provide actionable recommendations.",
		"",
		"Target URL: " + targetURL,
		"",
		"Website Analysis Data:",
		string(data),
		"",
		"Please provide:",
		"1. A brief executive summary of the main UX and accessibility issues",
		"2. 5-7 prioritized recommendations with specific, actionable steps",
		"3. Estimate an overall website health score (0-100)",
		"",
		"Focus on:",
		"- Accessibility (WCAG 2.1 AA compliance)",
		"- User Experience best practices",
		"- SEO fundamentals",
		"- Performance optimization opportunities",
		"",
		"Output as JSON with keys:",
		"- summary: string (executive summary)",
		"- priorities: array of {rank: number, text: string} (1 = highest priority)",
		"- webScore: number (0-100 health score)",
	}, "\n"), nil
}
