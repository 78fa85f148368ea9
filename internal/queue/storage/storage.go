// Package storage persists processing outcomes to PostgreSQL. Writes
// are idempotent upserts keyed by job_id, so a retried persistence call
// can never duplicate a record.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// Storage handles all database operations for the processing queue
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// JobRecord is the persisted shape of a processed job
type JobRecord struct {
	JobID         string          `db:"job_id"`
	URL           string          `db:"url"`
	Title         string          `db:"title"`
	Company       string          `db:"company"`
	Location      string          `db:"location"`
	SearchKeyword string          `db:"search_keyword"`
	Status        string          `db:"status"`
	Attempts      int             `db:"attempts"`
	Result        json.RawMessage `db:"result"`
	FailureReason sql.NullString  `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// SaveResult upserts the task's current status and, when present, its
// analysis result. Keyed by job_id; safe to call repeatedly for the
// same job.
func (s *Storage) SaveResult(ctx context.Context, task *domain.JobTask) error {
	query := `
		INSERT INTO job_results (
			job_id, url, title, company, location, search_keyword,
			status, attempts, result, failure_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			result = EXCLUDED.result,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = NOW()
	`

	var resultJSON []byte
	if task.Result != nil {
		var err error
		resultJSON, err = json.Marshal(task.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis result: %w", err)
		}
	}

	var failureReason sql.NullString
	if task.FailureReason != "" {
		failureReason = sql.NullString{String: task.FailureReason, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		task.JobID,
		task.URL,
		task.Title,
		task.Company,
		task.Location,
		task.SearchKeyword,
		string(task.Status),
		task.Attempts,
		resultJSON,
		failureReason,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job result: %w", err)
	}

	s.logger.Debug("Job result saved",
		slog.String("job_id", task.JobID),
		slog.String("status", string(task.Status)),
	)

	return nil
}

// GetJobByID retrieves a persisted job record
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*JobRecord, error) {
	query := `
		SELECT job_id, url, title, company, location, search_keyword,
		       status, attempts, result, failure_reason, created_at, updated_at
		FROM job_results
		WHERE job_id = $1
	`

	var record JobRecord
	if err := s.db.GetContext(ctx, &record, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &record, nil
}

// ListByStatus returns up to limit records in the given status, newest
// first. Used by operators to inspect the dead letter backlog.
func (s *Storage) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]JobRecord, error) {
	query := `
		SELECT job_id, url, title, company, location, search_keyword,
		       status, attempts, result, failure_reason, created_at, updated_at
		FROM job_results
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	var records []JobRecord
	if err := s.db.SelectContext(ctx, &records, query, string(status), limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}

	return records, nil
}
