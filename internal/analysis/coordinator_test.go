package analysis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/analysis/mock"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

func testCoordinator(primary, secondary, fallback analysis.Scorer) *analysis.Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return analysis.NewCoordinator(logger, analysis.CoordinatorConfig{
		Tier1Timeout:     time.Second,
		Tier2Timeout:     time.Second,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	}, primary, secondary, fallback)
}

func testRequest() analysis.ScoreRequest {
	return analysis.ScoreRequest{
		Title:       "Senior Go Engineer",
		Company:     "Acme",
		Description: "Build distributed services in Go",
		Profile: analysis.CandidateProfile{
			Skills: []analysis.SkillWeight{{Name: "go", Weight: 1}},
		},
	}
}

func TestCoordinator_PrimarySuccess(t *testing.T) {
	primary := mock.NewFixedScorer("primary-ai", 0.9, 0.85)
	secondary := mock.NewFixedScorer("secondary-ai", 0.8, 0.7)
	fallback := mock.NewFixedScorer("rules", 0.5, 0.4)

	c := testCoordinator(primary, secondary, fallback)
	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, domain.MethodPrimary, result.Method)
	assert.Equal(t, 0.9, result.CompatibilityScore)
	assert.Equal(t, 1, primary.Calls)
	assert.Equal(t, 0, secondary.Calls)
	assert.Equal(t, 0, fallback.Calls)
	assert.Equal(t, 0, c.Breaker().ConsecutiveFailures())
}

func TestCoordinator_FallsBackToSecondary(t *testing.T) {
	primary := mock.NewFailingScorer("primary-ai", analysis.ErrProviderUnavailable)
	secondary := mock.NewFixedScorer("secondary-ai", 0.8, 0.7)
	fallback := mock.NewFixedScorer("rules", 0.5, 0.4)

	c := testCoordinator(primary, secondary, fallback)
	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, domain.MethodSecondary, result.Method)
	assert.Equal(t, 0.8, result.CompatibilityScore)
	assert.Equal(t, 1, c.Breaker().ConsecutiveFailures())
	assert.Equal(t, 0, fallback.Calls)
}

func TestCoordinator_FallsBackToRuleBased(t *testing.T) {
	primary := mock.NewFailingScorer("primary-ai", analysis.ErrProviderUnavailable)
	secondary := mock.NewFailingScorer("secondary-ai", errors.New("bad gateway"))
	fallback := mock.NewFixedScorer("rules", 0.5, 0.4)

	c := testCoordinator(primary, secondary, fallback)
	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, domain.MethodRuleBased, result.Method)
	assert.Equal(t, 0.5, result.CompatibilityScore)
	assert.Equal(t, 1, fallback.Calls)
}

func TestCoordinator_PrimaryTimeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	primary := mock.NewTimeoutScorer("primary-ai")
	secondary := mock.NewFixedScorer("secondary-ai", 0.8, 0.7)
	fallback := mock.NewFixedScorer("rules", 0.5, 0.4)

	c := analysis.NewCoordinator(logger, analysis.CoordinatorConfig{
		Tier1Timeout:     20 * time.Millisecond,
		Tier2Timeout:     time.Second,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	}, primary, secondary, fallback)

	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, domain.MethodSecondary, result.Method)
	assert.Equal(t, 1, c.Breaker().ConsecutiveFailures())
}

func TestCoordinator_ClampsScores(t *testing.T) {
	primary := mock.NewFixedScorer("primary-ai", 1.7, -0.2)

	c := testCoordinator(primary, nil, mock.NewFixedScorer("rules", 0.5, 0.4))
	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, 1.0, result.CompatibilityScore)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestCoordinator_RejectsNaN(t *testing.T) {
	primary := mock.NewFixedScorer("primary-ai", math.NaN(), 0.9)
	secondary := mock.NewFixedScorer("secondary-ai", 0.8, 0.7)

	c := testCoordinator(primary, secondary, mock.NewFixedScorer("rules", 0.5, 0.4))
	result := c.Score(context.Background(), testRequest())

	// A non-numeric payload counts as a tier failure.
	assert.Equal(t, domain.MethodSecondary, result.Method)
	assert.Equal(t, 1, c.Breaker().ConsecutiveFailures())
}

func TestCoordinator_OpenBreakerSkipsPrimary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	primary := mock.NewFailingScorer("primary-ai", analysis.ErrProviderUnavailable)
	secondary := mock.NewFixedScorer("secondary-ai", 0.8, 0.7)

	c := analysis.NewCoordinator(logger, analysis.CoordinatorConfig{
		Tier1Timeout:     time.Second,
		Tier2Timeout:     time.Second,
		BreakerThreshold: 1,
		BreakerCooldown:  time.Minute,
	}, primary, secondary, mock.NewFixedScorer("rules", 0.5, 0.4))

	c.Score(context.Background(), testRequest())
	assert.Equal(t, 1, primary.Calls)
	assert.True(t, c.Breaker().Open())

	// The breaker is open: the primary tier is not called again.
	result := c.Score(context.Background(), testRequest())
	assert.Equal(t, 1, primary.Calls)
	assert.Equal(t, domain.MethodSecondary, result.Method)
}

func TestCoordinator_NoAITiersConfigured(t *testing.T) {
	fallback := mock.NewFixedScorer("rules", 0.6, 0.4)

	c := testCoordinator(nil, nil, fallback)
	result := c.Score(context.Background(), testRequest())

	assert.Equal(t, domain.MethodRuleBased, result.Method)
	assert.Equal(t, 0.6, result.CompatibilityScore)
}
