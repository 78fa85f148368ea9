// Package rulebased implements the deterministic last analysis tier. It
// computes compatibility from weighted skill overlap between the posting
// text and the candidate profile, with no external calls, so it can
// never fail.
package rulebased

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// sparseProfileScore is returned when the profile declares no skills,
// so sparse profiles do not zero-score every job.
const sparseProfileScore = 0.5

// ruleBasedConfidence reflects that keyword overlap is a rough signal
// compared to the AI tiers.
const ruleBasedConfidence = 0.4

// Scorer implements analysis.Scorer with weighted keyword overlap.
type Scorer struct{}

// NewScorer creates the rule-based scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Name() string { return "rule_based" }

// Score computes matched skill weight over total skill weight. It
// returns a result for any non-empty input and never an error.
func (s *Scorer) Score(_ context.Context, req analysis.ScoreRequest) (domain.AnalysisResult, error) {
	text := normalizeText(req.Title + " " + req.Company + " " + req.Description)

	var matchedWeight, totalWeight float64
	var matches, gaps []string

	for _, skill := range req.Profile.Skills {
		weight := skill.Weight
		if weight <= 0 {
			weight = 1
		}
		totalWeight += weight

		if strings.Contains(text, normalizeText(skill.Name)) {
			matchedWeight += weight
			matches = append(matches, skill.Name)
		} else {
			gaps = append(gaps, skill.Name)
		}
	}

	if totalWeight == 0 {
		return domain.AnalysisResult{
			CompatibilityScore: sparseProfileScore,
			Confidence:         ruleBasedConfidence,
			Reasoning:          "no skills declared in profile, using neutral score",
		}, nil
	}

	return domain.AnalysisResult{
		CompatibilityScore: matchedWeight / totalWeight,
		Confidence:         ruleBasedConfidence,
		SkillMatches:       matches,
		SkillGaps:          gaps,
		Reasoning:          fmt.Sprintf("matched %d of %d profile skills by keyword overlap", len(matches), len(req.Profile.Skills)),
	}, nil
}

func normalizeText(s string) string {
	return " " + strings.Join(strings.Fields(strings.ToLower(s)), " ") + " "
}

var _ analysis.Scorer = (*Scorer)(nil)
