package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/user/audit-service/internal/entity"
)

const headingTextLimit = 50

var headingTags = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// vagueLinkTexts is the closed set of link labels that say nothing about the target.
var vagueLinkTexts = map[string]struct{}{
	"click here": {},
	"read more":  {},
	"more":       {},
	"here":       {},
	"link":       {},
}

// lightColorDeclarations are inline style fragments flagged as likely low contrast.
// This is a textual proxy, not a contrast-ratio computation.
var lightColorDeclarations = []string{"color: white", "color: yellow", "color: #fff"}

var semanticElements = map[atom.Atom]struct{}{
	atom.Main:    {},
	atom.Article: {},
	atom.Section: {},
	atom.Nav:     {},
	atom.Aside:   {},
	atom.Header:  {},
	atom.Footer:  {},
}

// Analyzer computes a HeuristicReport from markup.
type Analyzer struct{}

// New returns an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses markup and returns its heuristic report.
func (a *Analyzer) Analyze(markup string) (*entity.HeuristicReport, error) {
	return Analyze(markup)
}

// Analyze parses markup and returns its heuristic report. Parsing is
// tolerant: missing elements produce zero values, not errors.
func Analyze(markup string) (*entity.HeuristicReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	c := newCollector()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		c.visit(s)
	})

	report := &entity.HeuristicReport{
		Counts: entity.ElementCounts{
			Images:      c.images,
			Links:       c.links,
			Forms:       c.forms,
			Buttons:     c.buttons,
			Paragraphs:  c.paragraphs,
			Scripts:     c.scripts,
			Stylesheets: c.stylesheets,
		},
		Headings: c.headingLevels(),
		Accessibility: entity.AccessibilitySignals{
			ImagesMissingAlt:        c.missingAlt,
			ImagesEmptyAlt:          c.emptyAlt,
			DecorativeImages:        c.emptyAlt,
			InputsWithoutLabels:     c.unlabelledInputs(),
			HasAriaLabels:           c.ariaLabels > 0,
			HasSkipLinks:            c.skipLinks > 0,
			PotentialContrastIssues: c.contrastIssues,
		},
		SEO: seoSignals(c),
		Links: entity.LinkSignals{
			Total:          c.links,
			External:       c.externalLinks,
			VagueLinkTexts: c.vagueLinks,
		},
		Performance: entity.PerformanceSignals{
			InlineStyles:    c.inlineStyles,
			HasLazyLoading:  c.lazyImages > 0,
			LazyImagesCount: c.lazyImages,
		},
		ModernFeatures: entity.ModernFeatures{
			ResponsiveImages: c.responsiveImages,
			SemanticHTML:     c.semantic,
		},
	}

	var body *html.Node
	if sel := doc.Find("body"); sel.Length() > 0 {
		body = sel.Get(0)
	}
	report.Content = contentSignals(visibleTextLength(body), c.paragraphs)

	return report, nil
}

// contentSignals derives the paragraph average and readability proxy.
// readability = clamp(0, 100, 100 - avgParagraphLength/10).
func contentSignals(totalTextLength, paragraphs int) entity.ContentSignals {
	avg := 0
	if paragraphs > 0 {
		avg = int(math.Round(float64(totalTextLength) / float64(paragraphs)))
	}
	score := 100 - float64(avg)/10
	score = math.Max(0, math.Min(100, score))
	return entity.ContentSignals{
		TotalTextLength:    totalTextLength,
		AvgParagraphLength: avg,
		ReadabilityScore:   score,
	}
}

func seoSignals(c *collector) entity.SEOSignals {
	seo := entity.SEOSignals{
		MetaDescriptionPresent: c.metaDescription != "",
		MetaDescriptionLength:  runeLen(c.metaDescription),
		HasMetaKeywords:        c.metaKeywords != "",
		HasViewportMeta:        c.metaViewport != "",
	}
	if c.title != "" {
		title := c.title
		seo.Title = &title
		seo.TitleLength = runeLen(title)
	}
	return seo
}
