package repository

import (
	"context"

	"github.com/user/audit-service/internal/entity"
)

// TextGenerator is an external text-generation service.
type TextGenerator interface {
	// Generate returns the raw model output for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recommender turns heuristics into prioritized advice.
type Recommender interface {
	Recommend(ctx context.Context, targetURL string, heuristics *entity.HeuristicReport) (*entity.Recommendation, error)
	Strategy() entity.Strategy
}
