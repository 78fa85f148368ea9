package dto

// SubmitJobsRequest is the producer-facing batch submission payload.
type SubmitJobsRequest struct {
	Jobs []JobPostingDTO `json:"jobs" binding:"required,min=1"`
}

// JobPostingDTO is one scraped posting as submitted by a producer.
type JobPostingDTO struct {
	URL           string `json:"url" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Company       string `json:"company"`
	Location      string `json:"location"`
	SearchKeyword string `json:"search_keyword"`
	Description   string `json:"description"`
}

// SubmitJobsResponse reports how the batch was admitted. Skipped jobs
// were already seen this run; that is expected, not an error.
type SubmitJobsResponse struct {
	Admitted int      `json:"admitted"`
	Skipped  int      `json:"skipped"`
	JobIDs   []string `json:"job_ids"`
}

// JobDTO is the API shape of a persisted job record.
type JobDTO struct {
	JobID         string          `json:"job_id"`
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Company       string          `json:"company,omitempty"`
	Location      string          `json:"location,omitempty"`
	SearchKeyword string          `json:"search_keyword,omitempty"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	Result        *AnalysisResult `json:"result,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// AnalysisResult is the API shape of a scoring outcome.
type AnalysisResult struct {
	CompatibilityScore float64  `json:"compatibility_score"`
	Confidence         float64  `json:"confidence"`
	Method             string   `json:"method"`
	SkillMatches       []string `json:"skill_matches,omitempty"`
	SkillGaps          []string `json:"skill_gaps,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// JobStatusDTO is the lightweight status-only response served from the
// cache when the full record is not needed.
type JobStatusDTO struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Source string `json:"source"`
}
