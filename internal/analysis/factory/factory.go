// Package factory constructs analysis scorers from configuration.
// Called once at service startup.
package factory

import (
	"fmt"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/analysis/anthropic"
	"github.com/davidtran-dev/jobmatch-be/internal/analysis/openai"
	"github.com/davidtran-dev/jobmatch-be/internal/config"
)

// NewScorer builds the scorer for one AI tier based on its configured
// provider name. The rule-based tier is not constructed here: it is
// always present and has no configuration.
func NewScorer(name string, cfg config.AnalysisConfig) (analysis.Scorer, error) {
	switch name {
	case "openai":
		return openai.NewScorer(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.OpenAI.MaxTokens,
		}), nil
	case "anthropic":
		return anthropic.NewScorer(anthropic.Config{
			BaseURL:   cfg.Anthropic.BaseURL,
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q: must be one of openai, anthropic", name)
	}
}
