// Package mock provides analysis.Scorer test doubles.
package mock

import (
	"context"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// Scorer satisfies analysis.Scorer for testing.
type Scorer struct {
	ProviderName string
	ScoreFunc    func(ctx context.Context, req analysis.ScoreRequest) (domain.AnalysisResult, error)

	// Calls counts how many times Score was invoked. Not safe for
	// concurrent scorers; tests that need that wrap ScoreFunc.
	Calls int
}

func (m *Scorer) Name() string { return m.ProviderName }

func (m *Scorer) Score(ctx context.Context, req analysis.ScoreRequest) (domain.AnalysisResult, error) {
	m.Calls++
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, req)
	}
	return domain.AnalysisResult{}, nil
}

// NewFixedScorer returns a scorer that always succeeds with the given
// score and confidence.
func NewFixedScorer(name string, score, confidence float64) *Scorer {
	return &Scorer{
		ProviderName: name,
		ScoreFunc: func(_ context.Context, _ analysis.ScoreRequest) (domain.AnalysisResult, error) {
			return domain.AnalysisResult{
				CompatibilityScore: score,
				Confidence:         confidence,
				Reasoning:          "fixed result from mock scorer",
			}, nil
		},
	}
}

// NewFailingScorer returns a scorer that always returns err.
func NewFailingScorer(name string, err error) *Scorer {
	return &Scorer{
		ProviderName: name,
		ScoreFunc: func(_ context.Context, _ analysis.ScoreRequest) (domain.AnalysisResult, error) {
			return domain.AnalysisResult{}, err
		},
	}
}

// NewTimeoutScorer returns a scorer that blocks until its context is
// canceled.
func NewTimeoutScorer(name string) *Scorer {
	return &Scorer{
		ProviderName: name,
		ScoreFunc: func(ctx context.Context, _ analysis.ScoreRequest) (domain.AnalysisResult, error) {
			<-ctx.Done()
			return domain.AnalysisResult{}, analysis.ErrScoreTimeout
		},
	}
}

var _ analysis.Scorer = (*Scorer)(nil)
