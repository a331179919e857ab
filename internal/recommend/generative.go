package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

// defaultWebScore is used when the service answers with something that is not JSON.
const defaultWebScore = 50

// Generative asks an external text-generation service for recommendations.
type Generative struct {
	generator repository.TextGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// NewGenerative creates a Generative recommender backed by generator.
func NewGenerative(generator repository.TextGenerator, now func() time.Time, logger *zap.Logger) *Generative {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generative{generator: generator, now: now, logger: logger}
}

// Strategy implements repository.Recommender.
func (g *Generative) Strategy() entity.Strategy {
	return entity.StrategyGenerative
}

// Recommend implements repository.Recommender. A failing service call is
// returned as repository.ErrGenerationFailed; a malformed answer is recovered
// into a default recommendation carrying the raw text.
func (g *Generative) Recommend(ctx context.Context, targetURL string, h *entity.HeuristicReport) (*entity.Recommendation, error) {
	prompt, err := BuildPrompt(targetURL, h)
	if err != nil {
		return nil, err
	}

	text, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrGenerationFailed, err)
	}

	rec, ok := ParseResponse(text)
	if !ok {
		g.logger.Warn("generation response was not valid JSON, using default recommendation",
			zap.String("url", targetURL),
			zap.Int("response_length", len(text)),
		)
	}
	rec.Strategy = entity.StrategyGenerative
	rec.GeneratedAt = formatTimestamp(g.now())
	return rec, nil
}

// generatedPriority accepts both "rank" and the shorter "p" key.
type generatedPriority struct {
	Rank *int   `json:"rank"`
	P    *int   `json:"p"`
	Text string `json:"text"`
}

type generatedRecommendation struct {
	Summary    string              `json:"summary"`
	Priorities []generatedPriority `json:"priorities"`
	WebScore   *float64            `json:"webScore"`
}

// ParseResponse decodes a model answer into a Recommendation. When text is
// not a JSON object, a bare null included, it returns
// {summary: text, priorities: [], webScore: 50} and false.
func ParseResponse(text string) (*entity.Recommendation, bool) {
	body := stripCodeFence(text)
	var raw generatedRecommendation
	if !strings.HasPrefix(body, "{") || json.Unmarshal([]byte(body), &raw) != nil {
		return &entity.Recommendation{
			Summary:    text,
			Priorities: []entity.Priority{},
			WebScore:   defaultWebScore,
		}, false
	}

	rec := &entity.Recommendation{
		Summary:    raw.Summary,
		Priorities: make([]entity.Priority, 0, len(raw.Priorities)),
		WebScore:   defaultWebScore,
	}
	if raw.WebScore != nil {
		rec.WebScore = int(math.Round(math.Max(0, math.Min(100, *raw.WebScore))))
	}
	for i, p := range raw.Priorities {
		rank := i + 1
		switch {
		case p.Rank != nil && *p.Rank > 0:
			rank = *p.Rank
		case p.P != nil && *p.P > 0:
			rank = *p.P
		}
		rec.Priorities = append(rec.Priorities, entity.Priority{Rank: rank, Text: p.Text})
	}
	sort.SliceStable(rec.Priorities, func(i, j int) bool {
		return rec.Priorities[i].Rank < rec.Priorities[j].Rank
	})
	return rec, true
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
