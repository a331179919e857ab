package entity

// Strategy names the recommender implementation that produced a Recommendation.
type Strategy string

const (
	StrategyFallback   Strategy = "fallback"
	StrategyGenerative Strategy = "generative"
)

// Priority is a single ranked piece of advice. Rank 1 is the most urgent.
type Priority struct {
	Rank int    `json:"rank"`
	Text string `json:"text"`
}

// Recommendation is the advice derived from a HeuristicReport.
type Recommendation struct {
	Summary     string     `json:"summary"`
	Priorities  []Priority `json:"priorities"`
	WebScore    int        `json:"webScore"`
	Strategy    Strategy   `json:"strategy"`
	GeneratedAt string     `json:"generatedAt"`
}
