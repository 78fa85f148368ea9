package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// JobTask is one unit of work flowing through the processing queue.
// Descriptive fields are set at creation and never mutated afterwards;
// Status, Attempts and Result are owned by exactly one worker at a time.
type JobTask struct {
	JobID         string
	URL           string
	Title         string
	Company       string
	Location      string
	SearchKeyword string
	Description   string

	Status        Status
	Attempts      int
	CreatedAt     time.Time
	LastAttemptAt time.Time

	// Result is non-nil if and only if Status is Succeeded.
	Result *AnalysisResult

	// FailureReason records why a task was dead-lettered.
	FailureReason string
}

// AnalysisResult is the output of scoring a job posting against a
// candidate profile.
type AnalysisResult struct {
	CompatibilityScore float64  `json:"compatibility_score"`
	Confidence         float64  `json:"confidence"`
	Method             string   `json:"method"`
	SkillMatches       []string `json:"skill_matches"`
	SkillGaps          []string `json:"skill_gaps"`
	Reasoning          string   `json:"reasoning"`
}

// NewJobTask builds a task with a content-derived ID and Queued status.
func NewJobTask(url, title, company, location, searchKeyword, description string) *JobTask {
	return &JobTask{
		JobID:         DeriveJobID(url, title),
		URL:           url,
		Title:         title,
		Company:       company,
		Location:      location,
		SearchKeyword: searchKeyword,
		Description:   description,
		Status:        StatusQueued,
		CreatedAt:     time.Now().UTC(),
	}
}

// DeriveJobID computes a stable identifier from the normalized URL and
// title. Two postings with the same URL and title map to the same ID even
// when they were found via different search keywords.
func DeriveJobID(url, title string) string {
	sum := sha256.Sum256([]byte(normalizeURL(url) + "|" + normalizeText(title)))
	return hex.EncodeToString(sum[:])[:16]
}

// Validate checks the fields producers are required to populate.
func (t *JobTask) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidTask)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	return nil
}

func normalizeURL(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	return strings.TrimRight(url, "/")
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
