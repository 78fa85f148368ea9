package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// Coordinator runs the tiered scoring pipeline. Tiers are tried in
// order until one succeeds; the last tier is rule-based and cannot fail,
// so Score always returns a usable result and never an error.
type Coordinator struct {
	logger *slog.Logger

	primary   Scorer
	secondary Scorer
	fallback  Scorer

	breaker *CircuitBreaker

	tier1Timeout time.Duration
	tier2Timeout time.Duration
}

// CoordinatorConfig holds tier timeouts and breaker settings.
type CoordinatorConfig struct {
	Tier1Timeout     time.Duration
	Tier2Timeout     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// NewCoordinator wires the three tiers. fallback must be total; the
// rule-based scorer satisfies that by construction.
func NewCoordinator(logger *slog.Logger, cfg CoordinatorConfig, primary, secondary, fallback Scorer) *Coordinator {
	return &Coordinator{
		logger:       logger,
		primary:      primary,
		secondary:    secondary,
		fallback:     fallback,
		breaker:      NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		tier1Timeout: cfg.Tier1Timeout,
		tier2Timeout: cfg.Tier2Timeout,
	}
}

// Score runs the request through the tiers. The returned result always
// has score and confidence clamped to [0, 1] and carries the method tag
// of the tier that produced it.
func (c *Coordinator) Score(ctx context.Context, req ScoreRequest) domain.AnalysisResult {
	if c.primary != nil && c.breaker.Allow() {
		result, err := c.scoreTier(ctx, c.primary, req, c.tier1Timeout)
		if err == nil {
			c.breaker.RecordSuccess()
			result.Method = domain.MethodPrimary
			return clamp(result)
		}

		c.breaker.RecordFailure()
		c.logger.Warn("Primary analysis tier failed",
			slog.String("provider", c.primary.Name()),
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", c.breaker.ConsecutiveFailures()),
		)
	} else if c.primary != nil {
		c.logger.Debug("Primary analysis tier skipped - circuit breaker open",
			slog.String("provider", c.primary.Name()),
		)
	}

	if c.secondary != nil {
		result, err := c.scoreTier(ctx, c.secondary, req, c.tier2Timeout)
		if err == nil {
			result.Method = domain.MethodSecondary
			return clamp(result)
		}

		c.logger.Warn("Secondary analysis tier failed",
			slog.String("provider", c.secondary.Name()),
			slog.String("error", err.Error()),
		)
	}

	result, err := c.fallback.Score(ctx, req)
	if err != nil {
		// The rule-based tier is total by construction. An error here is
		// a programming bug and must crash loudly rather than silently
		// degrade every score.
		panic(fmt.Sprintf("rule-based scorer failed: %v", err))
	}

	result.Method = domain.MethodRuleBased
	return clamp(result)
}

// Breaker exposes the circuit breaker for observability.
func (c *Coordinator) Breaker() *CircuitBreaker {
	return c.breaker
}

// scoreTier calls one provider under its timeout and validates the
// response shape. Malformed payloads count as tier failures.
func (c *Coordinator) scoreTier(ctx context.Context, scorer Scorer, req ScoreRequest, timeout time.Duration) (domain.AnalysisResult, error) {
	tierCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := scorer.Score(tierCtx, req)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if math.IsNaN(result.CompatibilityScore) || math.IsNaN(result.Confidence) {
		return domain.AnalysisResult{}, fmt.Errorf("%w: non-numeric score from %s", ErrInvalidResponse, scorer.Name())
	}

	return result, nil
}

func clamp(result domain.AnalysisResult) domain.AnalysisResult {
	result.CompatibilityScore = clampUnit(result.CompatibilityScore)
	result.Confidence = clampUnit(result.Confidence)
	return result
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
