package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/user/audit-service/internal/entity"
)

const (
	scoreStart           = 100
	scoreFloor           = 20
	penaltyMissingAlt    = 15
	penaltySEO           = 20
	penaltyVagueLinkText = 5
)

// Fallback is the deterministic rule-based recommender used when no
// text-generation service is configured.
type Fallback struct {
	now func() time.Time
}

// NewFallback creates a Fallback. now stamps GeneratedAt; it defaults to time.Now.
func NewFallback(now func() time.Time) *Fallback {
	if now == nil {
		now = time.Now
	}
	return &Fallback{now: now}
}

// Strategy implements repository.Recommender.
func (f *Fallback) Strategy() entity.Strategy {
	return entity.StrategyFallback
}

// Recommend implements repository.Recommender. Apart from GeneratedAt the
// result depends only on h.
func (f *Fallback) Recommend(_ context.Context, _ string, h *entity.HeuristicReport) (*entity.Recommendation, error) {
	missingAlt := h.Accessibility.ImagesMissingAlt
	vague := h.Links.VagueLinkTexts

	seoState := "good"
	if h.MissingSEOFundamentals() {
		seoState = "missing"
	}

	return &entity.Recommendation{
		Summary: fmt.Sprintf(
			"Automated analysis: this website has %d accessibility issues, %s SEO fundamentals, and %d unclear link texts. "+
				"Configure a text-generation service for a detailed review.",
			missingAlt, seoState, vague,
		),
		Priorities:  fallbackPriorities(h),
		WebScore:    WebScore(h),
		Strategy:    entity.StrategyFallback,
		GeneratedAt: formatTimestamp(f.now()),
	}, nil
}

// WebScore starts at 100 and subtracts 15 per image missing alt text, 20 when
// the title or meta description is missing and 5 per vague link text,
// flooring at 20.
func WebScore(h *entity.HeuristicReport) int {
	score := scoreStart -
		h.Accessibility.ImagesMissingAlt*penaltyMissingAlt -
		h.Links.VagueLinkTexts*penaltyVagueLinkText
	if h.MissingSEOFundamentals() {
		score -= penaltySEO
	}
	return max(score, scoreFloor)
}

func fallbackPriorities(h *entity.HeuristicReport) []entity.Priority {
	texts := make([]string, 0, 6)

	if n := h.Accessibility.ImagesMissingAlt; n > 0 {
		texts = append(texts, fmt.Sprintf("Critical: Add alt attributes to %d images for screen reader accessibility", n))
	} else {
		texts = append(texts, "Good: All images have alt attributes for accessibility")
	}

	if h1 := h.Heading("h1"); h1 == nil || h1.Count != 1 {
		texts = append(texts, "Important: Ensure exactly one H1 tag per page for proper heading hierarchy")
	} else {
		texts = append(texts, "Good: Proper H1 structure detected")
	}

	if !h.SEO.MetaDescriptionPresent {
		texts = append(texts, "SEO: Add a compelling meta description (150-160 characters) for better search snippets")
	} else {
		texts = append(texts, fmt.Sprintf("SEO: Meta description present (%d chars)", h.SEO.MetaDescriptionLength))
	}

	if n := h.Links.VagueLinkTexts; n > 0 {
		texts = append(texts, fmt.Sprintf("UX: Replace %d vague link texts like 'click here' with descriptive labels", n))
	} else {
		texts = append(texts, "Good: Link texts are descriptive and clear")
	}

	if h.Accessibility.PotentialContrastIssues > 0 {
		texts = append(texts, "Accessibility: Review color contrast ratios, especially for white/yellow text")
	} else {
		texts = append(texts, "Consider: Test color contrast ratios with automated tools like axe-core")
	}

	if !h.Performance.HasLazyLoading {
		texts = append(texts, "Performance: Implement lazy loading for images to improve page load speed")
	} else {
		texts = append(texts, "Good: Lazy loading detected for better performance")
	}

	priorities := make([]entity.Priority, len(texts))
	for i, text := range texts {
		priorities[i] = entity.Priority{Rank: i + 1, Text: text}
	}
	return priorities
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
