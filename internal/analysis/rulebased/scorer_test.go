package rulebased

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
)

func profile(skills ...analysis.SkillWeight) analysis.CandidateProfile {
	return analysis.CandidateProfile{Skills: skills}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name        string
		req         analysis.ScoreRequest
		wantScore   float64
		wantMatches []string
		wantGaps    []string
	}{
		{
			name: "full overlap",
			req: analysis.ScoreRequest{
				Title:       "Senior Go Engineer",
				Description: "PostgreSQL and Redis experience required",
				Profile: profile(
					analysis.SkillWeight{Name: "Go", Weight: 2},
					analysis.SkillWeight{Name: "PostgreSQL", Weight: 1},
					analysis.SkillWeight{Name: "Redis", Weight: 1},
				),
			},
			wantScore:   1.0,
			wantMatches: []string{"Go", "PostgreSQL", "Redis"},
		},
		{
			name: "weighted partial overlap",
			req: analysis.ScoreRequest{
				Title:       "Go Engineer",
				Description: "Backend services",
				Profile: profile(
					analysis.SkillWeight{Name: "go", Weight: 3},
					analysis.SkillWeight{Name: "kubernetes", Weight: 1},
				),
			},
			wantScore:   0.75,
			wantMatches: []string{"go"},
			wantGaps:    []string{"kubernetes"},
		},
		{
			name: "no overlap",
			req: analysis.ScoreRequest{
				Title:       "Accountant",
				Description: "Bookkeeping and payroll",
				Profile: profile(
					analysis.SkillWeight{Name: "go", Weight: 1},
					analysis.SkillWeight{Name: "rust", Weight: 1},
				),
			},
			wantScore: 0.0,
			wantGaps:  []string{"go", "rust"},
		},
		{
			name: "zero weight defaults to one",
			req: analysis.ScoreRequest{
				Title: "Go Engineer",
				Profile: profile(
					analysis.SkillWeight{Name: "go"},
					analysis.SkillWeight{Name: "rust"},
				),
			},
			wantScore:   0.5,
			wantMatches: []string{"go"},
			wantGaps:    []string{"rust"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scorer.Score(context.Background(), tt.req)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantScore, result.CompatibilityScore, 1e-9)
			assert.Equal(t, ruleBasedConfidence, result.Confidence)
			assert.Equal(t, tt.wantMatches, result.SkillMatches)
			assert.Equal(t, tt.wantGaps, result.SkillGaps)
			assert.NotEmpty(t, result.Reasoning)
		})
	}
}

func TestScorer_SparseProfile(t *testing.T) {
	scorer := NewScorer()

	result, err := scorer.Score(context.Background(), analysis.ScoreRequest{
		Title:       "Go Engineer",
		Description: "Anything at all",
	})
	require.NoError(t, err)

	// A profile with no declared skills gets a neutral score rather than
	// zeroing every job.
	assert.Equal(t, sparseProfileScore, result.CompatibilityScore)
	assert.Equal(t, ruleBasedConfidence, result.Confidence)
}

func TestScorer_CaseAndWhitespaceInsensitive(t *testing.T) {
	scorer := NewScorer()

	result, err := scorer.Score(context.Background(), analysis.ScoreRequest{
		Title:       "SENIOR   GO\tENGINEER",
		Description: "postgresql",
		Profile: profile(
			analysis.SkillWeight{Name: "Go", Weight: 1},
			analysis.SkillWeight{Name: "PostgreSQL", Weight: 1},
		),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.CompatibilityScore)
}
