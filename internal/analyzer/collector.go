package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"

	"github.com/user/audit-service/internal/entity"
)

// collector accumulates per-element signals during a single document-order
// pass. Signals that depend on the whole document (label association) are
// resolved after the pass.
type collector struct {
	images      int
	links       int
	forms       int
	buttons     int
	paragraphs  int
	scripts     int
	stylesheets int

	headingCounts [len(headingTags)]int
	headingTexts  [len(headingTags)][]string

	missingAlt       int
	emptyAlt         int
	lazyImages       int
	responsiveImages int

	externalLinks int
	vagueLinks    int
	skipLinks     int

	ariaLabels     int
	inlineStyles   int
	contrastIssues int
	semantic       int

	textInputs []textInput
	labelFor   map[string]struct{}

	titleSeen       bool
	title           string
	descriptionSeen bool
	metaDescription string
	keywordsSeen    bool
	metaKeywords    string
	viewportSeen    bool
	metaViewport    string
}

type textInput struct {
	id          string
	hasAriaName bool
}

func newCollector() *collector {
	c := &collector{labelFor: make(map[string]struct{})}
	for i := range c.headingTexts {
		c.headingTexts[i] = make([]string, 0)
	}
	return c
}

func (c *collector) visit(s *goquery.Selection) {
	node := s.Get(0)

	if _, ok := s.Attr("aria-label"); ok {
		c.ariaLabels++
	}
	if style, ok := s.Attr("style"); ok {
		c.inlineStyles++
		if hasLightColor(style) {
			c.contrastIssues++
		}
	}
	if _, ok := semanticElements[node.DataAtom]; ok {
		c.semantic++
	}

	switch node.DataAtom {
	case atom.Img:
		c.visitImage(s)
	case atom.A:
		c.visitAnchor(s)
	case atom.Form:
		c.forms++
	case atom.Button:
		c.buttons++
	case atom.Input:
		c.visitInput(s)
	case atom.Textarea:
		c.textInputs = append(c.textInputs, newTextInput(s))
	case atom.Label:
		if id, ok := s.Attr("for"); ok && id != "" {
			c.labelFor[id] = struct{}{}
		}
	case atom.P:
		c.paragraphs++
	case atom.Script:
		c.scripts++
	case atom.Link:
		if s.AttrOr("rel", "") == "stylesheet" {
			c.stylesheets++
		}
	case atom.Title:
		if !c.titleSeen {
			c.titleSeen = true
			c.title = strings.TrimSpace(s.Text())
		}
	case atom.Meta:
		c.visitMeta(s)
	default:
		for i, tag := range headingTags {
			if node.DataAtom == tag {
				c.headingCounts[i]++
				c.headingTexts[i] = append(c.headingTexts[i], truncate(strings.TrimSpace(s.Text()), headingTextLimit))
				break
			}
		}
	}
}

func (c *collector) visitImage(s *goquery.Selection) {
	c.images++
	alt, ok := s.Attr("alt")
	switch {
	case !ok:
		c.missingAlt++
	case alt == "":
		c.emptyAlt++
	}
	if s.AttrOr("loading", "") == "lazy" {
		c.lazyImages++
	}
	if s.AttrOr("srcset", "") != "" {
		c.responsiveImages++
	}
}

func (c *collector) visitAnchor(s *goquery.Selection) {
	c.links++
	text := strings.ToLower(strings.TrimSpace(s.Text()))
	if _, ok := vagueLinkTexts[text]; ok {
		c.vagueLinks++
	}
	href, ok := s.Attr("href")
	if !ok {
		return
	}
	if strings.HasPrefix(href, "http") || strings.HasPrefix(href, "//") {
		c.externalLinks++
	}
	if strings.HasPrefix(href, "#") && strings.Contains(text, "skip") {
		c.skipLinks++
	}
}

func (c *collector) visitInput(s *goquery.Selection) {
	switch strings.ToLower(s.AttrOr("type", "")) {
	case "submit", "button":
		c.buttons++
	case "text", "email", "password":
		c.textInputs = append(c.textInputs, newTextInput(s))
	}
}

// visitMeta keeps the first occurrence of each named meta tag.
func (c *collector) visitMeta(s *goquery.Selection) {
	content := s.AttrOr("content", "")
	switch s.AttrOr("name", "") {
	case "description":
		if !c.descriptionSeen {
			c.descriptionSeen = true
			c.metaDescription = strings.TrimSpace(content)
		}
	case "keywords":
		if !c.keywordsSeen {
			c.keywordsSeen = true
			c.metaKeywords = strings.TrimSpace(content)
		}
	case "viewport":
		if !c.viewportSeen {
			c.viewportSeen = true
			c.metaViewport = content
		}
	}
}

func newTextInput(s *goquery.Selection) textInput {
	return textInput{
		id:          s.AttrOr("id", ""),
		hasAriaName: s.AttrOr("aria-label", "") != "",
	}
}

// unlabelledInputs counts text-entry controls with neither an aria-label nor
// a label[for=id] anywhere in the document.
func (c *collector) unlabelledInputs() int {
	n := 0
	for _, in := range c.textInputs {
		if in.hasAriaName {
			continue
		}
		if _, ok := c.labelFor[in.id]; ok && in.id != "" {
			continue
		}
		n++
	}
	return n
}

func (c *collector) headingLevels() []entity.HeadingLevel {
	levels := make([]entity.HeadingLevel, len(headingTags))
	for i, tag := range headingTags {
		levels[i] = entity.HeadingLevel{
			Tag:   tag.String(),
			Count: c.headingCounts[i],
			Texts: c.headingTexts[i],
		}
	}
	return levels
}

func hasLightColor(style string) bool {
	if !strings.Contains(style, "color:") {
		return false
	}
	for _, decl := range lightColorDeclarations {
		if strings.Contains(style, decl) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
