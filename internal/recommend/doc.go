// Package recommend turns a HeuristicReport into prioritized advice.
//
// Two strategies implement repository.Recommender: Fallback derives advice
// from fixed templates and a scoring formula, Generative asks an external
// text-generation service. The process picks one at startup.
package recommend
