// Package analysis scores job postings against a candidate profile
// through an ordered chain of strategies: a primary AI provider, a
// secondary AI provider, and a deterministic rule-based fallback that
// never fails.
package analysis

import (
	"context"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// Scorer is the interface every analysis tier implements. Callers go
// through the Coordinator rather than a specific provider.
type Scorer interface {
	// Score produces a compatibility result for one posting. The call
	// must respect ctx cancellation.
	Score(ctx context.Context, req ScoreRequest) (domain.AnalysisResult, error)
	// Name returns the provider identifier (e.g. "openai", "rule_based").
	Name() string
}

// ScoreRequest is the input to one scoring operation.
type ScoreRequest struct {
	Title       string
	Company     string
	Description string
	Profile     CandidateProfile
}

// CandidateProfile describes the person the postings are matched against.
type CandidateProfile struct {
	Summary string        `yaml:"summary" json:"summary"`
	Skills  []SkillWeight `yaml:"skills"  json:"skills"`
}

// SkillWeight is one declared skill with its relative importance.
type SkillWeight struct {
	Name   string  `yaml:"name"   json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}
