package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidtran-dev/jobmatch-be/internal/api/dto"
	"github.com/davidtran-dev/jobmatch-be/internal/cache"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/storage"
)

// SubmitJobs handles POST /api/v1/jobs
// Accepts a batch of scraped postings and submits them to the queue.
// Already-seen postings are skipped silently.
func (h *JobHandler) SubmitJobs(c *gin.Context) {
	var req dto.SubmitJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	tasks := make([]*domain.JobTask, 0, len(req.Jobs))
	jobIDs := make([]string, 0, len(req.Jobs))
	for _, posting := range req.Jobs {
		task := domain.NewJobTask(
			posting.URL,
			posting.Title,
			posting.Company,
			posting.Location,
			posting.SearchKeyword,
			posting.Description,
		)
		tasks = append(tasks, task)
		jobIDs = append(jobIDs, task.JobID)
	}

	admitted, err := h.controller.SubmitBatch(c.Request.Context(), tasks)
	if err != nil {
		h.logger.Error("Failed to submit batch", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "Failed to submit jobs",
			"admitted": admitted,
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitJobsResponse{
		Admitted: admitted,
		Skipped:  len(tasks) - admitted,
		JobIDs:   jobIDs,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the persisted record for a job.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id is required",
		})
		return
	}

	record, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// The record may not be persisted yet; fall back to the
			// status cache for in-flight jobs.
			h.getJobStatusFromCache(c, jobID)
			return
		}

		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, toJobDTO(record))
}

// ListDeadLetters handles GET /api/v1/jobs/dead-letters
// Returns recent dead-lettered jobs for operator inspection.
func (h *JobHandler) ListDeadLetters(c *gin.Context) {
	records, err := h.storage.ListByStatus(c.Request.Context(), domain.StatusDeadLettered, 100)
	if err != nil {
		h.logger.Error("Failed to list dead letters", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list dead letters",
		})
		return
	}

	jobs := make([]dto.JobDTO, len(records))
	for i := range records {
		jobs[i] = toJobDTO(&records[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *JobHandler) getJobStatusFromCache(c *gin.Context, jobID string) {
	if h.cache == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	status, err := h.cache.GetJobStatus(c.Request.Context(), jobID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("Status cache lookup failed",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusDTO{
		JobID:  jobID,
		Status: string(status),
		Source: "cache",
	})
}

func toJobDTO(record *storage.JobRecord) dto.JobDTO {
	job := dto.JobDTO{
		JobID:         record.JobID,
		URL:           record.URL,
		Title:         record.Title,
		Company:       record.Company,
		Location:      record.Location,
		SearchKeyword: record.SearchKeyword,
		Status:        record.Status,
		Attempts:      record.Attempts,
		FailureReason: record.FailureReason.String,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     record.UpdatedAt.Format(time.RFC3339),
	}

	if len(record.Result) > 0 {
		var result dto.AnalysisResult
		if err := json.Unmarshal(record.Result, &result); err == nil {
			job.Result = &result
		}
	}

	return job
}
