package entity

// ElementCounts holds raw element tallies for a page.
type ElementCounts struct {
	Images      int `json:"images"`
	Links       int `json:"links"`
	Forms       int `json:"forms"`
	Buttons     int `json:"buttons"`
	Paragraphs  int `json:"paragraphs"`
	Scripts     int `json:"scripts"`
	Stylesheets int `json:"stylesheets"`
}

// HeadingLevel summarises one heading tag (h1..h6).
type HeadingLevel struct {
	Tag   string   `json:"tag"`
	Count int      `json:"count"`
	Texts []string `json:"texts"`
}

// AccessibilitySignals holds the accessibility heuristics.
// ImagesEmptyAlt and DecorativeImages are computed from the same condition.
type AccessibilitySignals struct {
	ImagesMissingAlt        int  `json:"imagesMissingAlt"`
	ImagesEmptyAlt          int  `json:"imagesEmptyAlt"`
	DecorativeImages        int  `json:"decorativeImages"`
	InputsWithoutLabels     int  `json:"inputsWithoutLabels"`
	HasAriaLabels           bool `json:"hasAriaLabels"`
	HasSkipLinks            bool `json:"hasSkipLinks"`
	PotentialContrastIssues int  `json:"potentialContrastIssues"`
}

// SEOSignals holds title and meta tag heuristics. Title is nil when the page
// has no non-blank title.
type SEOSignals struct {
	Title                  *string `json:"title"`
	TitleLength            int     `json:"titleLength"`
	MetaDescriptionPresent bool    `json:"metaDescriptionPresent"`
	MetaDescriptionLength  int     `json:"metaDescriptionLength"`
	HasMetaKeywords        bool    `json:"hasMetaKeywords"`
	HasViewportMeta        bool    `json:"hasViewportMeta"`
}

// LinkSignals holds anchor heuristics.
type LinkSignals struct {
	Total          int `json:"total"`
	External       int `json:"external"`
	VagueLinkTexts int `json:"vagueLinkTexts"`
}

// ContentSignals holds text volume heuristics.
type ContentSignals struct {
	TotalTextLength    int     `json:"totalTextLength"`
	AvgParagraphLength int     `json:"avgParagraphLength"`
	ReadabilityScore   float64 `json:"readabilityScore"`
}

// PerformanceSignals holds page-weight heuristics.
type PerformanceSignals struct {
	InlineStyles    int  `json:"inlineStyles"`
	HasLazyLoading  bool `json:"hasLazyLoading"`
	LazyImagesCount int  `json:"lazyImagesCount"`
}

// ModernFeatures counts responsive images and semantic sectioning elements.
type ModernFeatures struct {
	ResponsiveImages int `json:"responsiveImages"`
	SemanticHTML     int `json:"semanticHtml"`
}

// HeuristicReport is the structured output of a single analysis pass.
// It is never mutated after the analyzer returns it.
type HeuristicReport struct {
	Counts         ElementCounts        `json:"counts"`
	Headings       []HeadingLevel       `json:"headings"`
	Accessibility  AccessibilitySignals `json:"accessibility"`
	SEO            SEOSignals           `json:"seo"`
	Links          LinkSignals          `json:"links"`
	Content        ContentSignals       `json:"content"`
	Performance    PerformanceSignals   `json:"performance"`
	ModernFeatures ModernFeatures       `json:"modernFeatures"`
}

// Heading returns the summary for tag, or nil when tag is not h1..h6.
func (h *HeuristicReport) Heading(tag string) *HeadingLevel {
	for i := range h.Headings {
		if h.Headings[i].Tag == tag {
			return &h.Headings[i]
		}
	}
	return nil
}

// MissingSEOFundamentals reports whether the title or meta description is absent.
func (h *HeuristicReport) MissingSEOFundamentals() bool {
	return h.SEO.Title == nil || !h.SEO.MetaDescriptionPresent
}
