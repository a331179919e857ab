package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/audit-service/internal/analyzer"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func heuristicsFor(t *testing.T, markup string) *entity.HeuristicReport {
	t.Helper()
	h, err := analyzer.Analyze(markup)
	require.NoError(t, err)
	return h
}

func strPtr(s string) *string { return &s }

func TestFallback_EndToEndScenario(t *testing.T) {
	h := heuristicsFor(t, `<html><head><title>T</title></head><body><img src="a.png"><p>hi</p></body></html>`)

	rec, err := NewFallback(fixedNow).Recommend(context.Background(), "https://example.com", h)
	require.NoError(t, err)

	assert.Equal(t, 65, rec.WebScore)
	assert.Equal(t, entity.StrategyFallback, rec.Strategy)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", rec.GeneratedAt)
	require.Len(t, rec.Priorities, 6)
	assert.Equal(t, 1, rec.Priorities[0].Rank)
	assert.Contains(t, rec.Priorities[0].Text, "alt attributes to 1 images")
	assert.Contains(t, rec.Priorities[2].Text, "Add a compelling meta description")
	for i, p := range rec.Priorities {
		assert.Equal(t, i+1, p.Rank)
	}
}

func TestFallback_Deterministic(t *testing.T) {
	h := heuristicsFor(t, `<title>x</title><a href="#">here</a><img src="y">`)

	first, err := NewFallback(fixedNow).Recommend(context.Background(), "u", h)
	require.NoError(t, err)
	second, err := NewFallback(func() time.Time { return fixedNow().Add(time.Hour) }).Recommend(context.Background(), "u", h)
	require.NoError(t, err)

	assert.NotEqual(t, first.GeneratedAt, second.GeneratedAt)
	second.GeneratedAt = first.GeneratedAt
	assert.Equal(t, first, second)
}

func TestWebScore(t *testing.T) {
	complete := func() *entity.HeuristicReport {
		return &entity.HeuristicReport{
			SEO: entity.SEOSignals{Title: strPtr("t"), MetaDescriptionPresent: true},
		}
	}

	t.Run("perfect page", func(t *testing.T) {
		assert.Equal(t, 100, WebScore(complete()))
	})

	t.Run("missing title", func(t *testing.T) {
		h := complete()
		h.SEO.Title = nil
		assert.Equal(t, 80, WebScore(h))
	})

	t.Run("vague links", func(t *testing.T) {
		h := complete()
		h.Links.VagueLinkTexts = 3
		assert.Equal(t, 85, WebScore(h))
	})

	t.Run("monotonic in missing alt and floored", func(t *testing.T) {
		h := complete()
		h.Links.VagueLinkTexts = 2
		prev := WebScore(h)
		for n := 1; n <= 20; n++ {
			h.Accessibility.ImagesMissingAlt = n
			got := WebScore(h)
			assert.LessOrEqual(t, got, prev)
			assert.GreaterOrEqual(t, got, 20)
			prev = got
		}
		assert.Equal(t, 20, prev)
	})
}

func TestFallback_GoodPage(t *testing.T) {
	h := heuristicsFor(t, `<html><head><title>Shop</title><meta name="description" content="Fine goods"></head>
<body><h1>Shop</h1><img src="a" alt="a" loading="lazy"><a href="/p">Pricing</a></body></html>`)

	rec, err := NewFallback(fixedNow).Recommend(context.Background(), "u", h)
	require.NoError(t, err)

	assert.Equal(t, 100, rec.WebScore)
	assert.Contains(t, rec.Summary, "good SEO fundamentals")
	assert.Equal(t, "Good: All images have alt attributes for accessibility", rec.Priorities[0].Text)
	assert.Equal(t, "Good: Proper H1 structure detected", rec.Priorities[1].Text)
	assert.Equal(t, "SEO: Meta description present (10 chars)", rec.Priorities[2].Text)
	assert.Equal(t, "Good: Lazy loading detected for better performance", rec.Priorities[5].Text)
}

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestGenerative_Recommend(t *testing.T) {
	h := heuristicsFor(t, `<title>T</title><img src="a">`)

	t.Run("parses JSON answer", func(t *testing.T) {
		gen := &stubGenerator{response: `{"summary":"Needs work","priorities":[{"rank":2,"text":"b"},{"rank":1,"text":"a"}],"webScore":72}`}
		rec, err := NewGenerative(gen, fixedNow, zaptest.NewLogger(t)).Recommend(context.Background(), "https://example.com", h)
		require.NoError(t, err)

		assert.Equal(t, "Needs work", rec.Summary)
		assert.Equal(t, 72, rec.WebScore)
		assert.Equal(t, []entity.Priority{{Rank: 1, Text: "a"}, {Rank: 2, Text: "b"}}, rec.Priorities)
		assert.Equal(t, entity.StrategyGenerative, rec.Strategy)

		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "Target URL: https://example.com")
		assert.Contains(t, gen.prompts[0], `"imagesMissingAlt": 1`)
	})

	t.Run("malformed answer degrades to default", func(t *testing.T) {
		gen := &stubGenerator{response: "Sorry, I cannot help with that."}
		rec, err := NewGenerative(gen, fixedNow, zaptest.NewLogger(t)).Recommend(context.Background(), "u", h)
		require.NoError(t, err)

		assert.Equal(t, "Sorry, I cannot help with that.", rec.Summary)
		assert.Empty(t, rec.Priorities)
		assert.NotNil(t, rec.Priorities)
		assert.Equal(t, 50, rec.WebScore)
	})

	t.Run("service failure propagates", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("quota exceeded")}
		_, err := NewGenerative(gen, fixedNow, zaptest.NewLogger(t)).Recommend(context.Background(), "u", h)
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrGenerationFailed)
		assert.True(t, strings.Contains(err.Error(), "quota exceeded"))
	})
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantScore int
		wantRanks []int
	}{
		{name: "short rank key", text: `{"summary":"s","priorities":[{"p":1,"text":"a"}],"webScore":80}`, wantOK: true, wantScore: 80, wantRanks: []int{1}},
		{name: "missing ranks use order", text: `{"priorities":[{"text":"a"},{"text":"b"}]}`, wantOK: true, wantScore: 50, wantRanks: []int{1, 2}},
		{name: "score clamped high", text: `{"webScore":140}`, wantOK: true, wantScore: 100, wantRanks: []int{}},
		{name: "score clamped low", text: `{"webScore":-3}`, wantOK: true, wantScore: 0, wantRanks: []int{}},
		{name: "fenced", text: "```json\n{\"webScore\":61.6}\n```", wantOK: true, wantScore: 62, wantRanks: []int{}},
		{name: "not json", text: "plain words", wantOK: false, wantScore: 50, wantRanks: []int{}},
		{name: "json array", text: `[1,2]`, wantOK: false, wantScore: 50, wantRanks: []int{}},
		{name: "json null", text: `null`, wantOK: false, wantScore: 50, wantRanks: []int{}},
		{name: "json string", text: `"fine"`, wantOK: false, wantScore: 50, wantRanks: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseResponse(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantScore, rec.WebScore)
			if !tt.wantOK {
				assert.Equal(t, tt.text, rec.Summary)
			}
			ranks := make([]int, 0, len(rec.Priorities))
			for _, p := range rec.Priorities {
				ranks = append(ranks, p.Rank)
			}
			assert.Equal(t, tt.wantRanks, ranks)
		})
	}
}
