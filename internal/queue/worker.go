package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// Analyzer scores a job posting. Implementations must be total: they
// always return a usable result and never an error (the analysis
// coordinator guarantees this with its rule-based last tier).
type Analyzer interface {
	Analyze(ctx context.Context, task *domain.JobTask) domain.AnalysisResult
}

// Store persists processing outcomes. SaveResult must be an idempotent
// upsert keyed by the task's JobID.
type Store interface {
	SaveResult(ctx context.Context, task *domain.JobTask) error
}

// StatusCache is an optional fast-path status mirror (e.g. Redis) for
// dashboard lookups. All calls are best-effort.
type StatusCache interface {
	SetJobStatus(ctx context.Context, jobID string, status domain.Status) error
}

// workerPool runs a fixed number of workers, each owning an independent
// dequeue loop over the shared task queue. No work stealing: load
// balancing falls out of the shared queue.
type workerPool struct {
	logger      *slog.Logger
	queue       *TaskQueue
	analyzer    Analyzer
	store       Store
	cache       StatusCache
	stats       *StatsAggregator
	backoff     *BackoffPolicy
	maxAttempts int

	// settled is invoked once per task reaching a terminal status, and
	// backs the controller's completion barrier.
	settled func()

	inFlight atomic.Int64
	wg       sync.WaitGroup
}

func newWorkerPool(logger *slog.Logger, q *TaskQueue, analyzer Analyzer, store Store, cache StatusCache, stats *StatsAggregator, backoff *BackoffPolicy, maxAttempts int, settled func()) *workerPool {
	return &workerPool{
		logger:      logger,
		queue:       q,
		analyzer:    analyzer,
		store:       store,
		cache:       cache,
		stats:       stats,
		backoff:     backoff,
		maxAttempts: maxAttempts,
		settled:     settled,
	}
}

// start spawns count worker goroutines.
func (p *workerPool) start(ctx context.Context, count int) {
	p.logger.Info("Spawning worker pool",
		slog.Int("num_workers", count),
	)

	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
}

// wait blocks until all workers have exited their loops.
func (p *workerPool) wait() {
	p.wg.Wait()
}

// InFlight returns the number of tasks currently held by workers.
func (p *workerPool) InFlight() int {
	return int(p.inFlight.Load())
}

// workerLoop is the main processing loop for one worker goroutine.
func (p *workerPool) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	workerName := fmt.Sprintf("worker-%d", workerNum)
	p.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrQueueClosed) {
				p.logger.Info("Worker goroutine stopping - queue closed and drained",
					slog.String("worker_name", workerName),
				)
			} else {
				p.logger.Info("Worker goroutine stopping - context canceled",
					slog.String("worker_name", workerName),
				)
			}
			return
		}

		p.inFlight.Add(1)
		p.processTask(ctx, workerName, task)
		p.inFlight.Add(-1)
	}
}

// processTask runs a task until it reaches a terminal status or its
// retry is handed back to the queue. Failures are fully contained here:
// nothing a single task does can take down the pool.
func (p *workerPool) processTask(ctx context.Context, workerName string, task *domain.JobTask) {
	for p.runAttempt(ctx, workerName, task) {
	}
}

// runAttempt executes one attempt and reports whether the owning worker
// should run the next attempt inline.
func (p *workerPool) runAttempt(ctx context.Context, workerName string, task *domain.JobTask) bool {
	task.Status = domain.StatusProcessing
	task.Attempts++
	task.LastAttemptAt = time.Now().UTC()
	p.setCachedStatus(ctx, task)

	p.logger.Info("Worker picked up task",
		slog.String("worker_name", workerName),
		slog.String("job_id", task.JobID),
		slog.String("title", task.Title),
		slog.Int("attempt", task.Attempts),
	)

	// Malformed tasks are permanent failures: no retry, straight to the
	// dead letter state.
	if err := task.Validate(); err != nil {
		p.deadLetter(ctx, workerName, task, err)
		return false
	}

	result := p.analyzer.Analyze(ctx, task)
	task.Result = &result

	if err := p.store.SaveResult(ctx, task); err != nil {
		// Persistence unavailability is a transient I/O error and goes
		// through the same retry policy as any other failure.
		return p.handleFailure(ctx, workerName, task, domain.NewRetryableError(err))
	}

	task.Status = domain.StatusSucceeded
	p.setCachedStatus(ctx, task)
	p.stats.RecordSuccess(result.Method)
	p.settled()

	p.logger.Info("Task completed",
		slog.String("worker_name", workerName),
		slog.String("job_id", task.JobID),
		slog.String("method", result.Method),
		slog.Float64("score", result.CompatibilityScore),
	)
	return false
}

// handleFailure applies the retry policy: transient errors back off and
// go to the back of the queue when there is room, or run again inline in
// the owning worker when there is not. A worker never blocks as a sender
// on its own queue, so a full queue with every worker holding a failed
// task cannot deadlock the pool. Returns true when the caller should
// retry inline.
func (p *workerPool) handleFailure(ctx context.Context, workerName string, task *domain.JobTask, err error) bool {
	if !domain.IsRetryable(err) || task.Attempts >= p.maxAttempts {
		if domain.IsRetryable(err) {
			err = fmt.Errorf("%w: %v", domain.ErrMaxAttemptsExceeded, err)
		}
		p.deadLetter(ctx, workerName, task, err)
		return false
	}

	p.logger.Warn("Task attempt failed, will retry",
		slog.String("worker_name", workerName),
		slog.String("job_id", task.JobID),
		slog.Int("attempt", task.Attempts),
		slog.Int("max_attempts", p.maxAttempts),
		slog.String("error", err.Error()),
	)

	task.Status = domain.StatusFailed
	task.Result = nil
	p.stats.RecordRetry(fmt.Sprintf("job %s attempt %d: %s", task.JobID, task.Attempts, err))

	if p.queue.Closed() {
		// Shutdown in progress: in-flight retries are abandoned and the
		// task is reconciled by the persistence layer on restart.
		p.logger.Info("Queue closed, abandoning retry",
			slog.String("job_id", task.JobID),
		)
		return false
	}

	if waitErr := p.backoff.Wait(ctx, task.Attempts); waitErr != nil {
		// Stop signal arrived mid-backoff. The task stays Failed and is
		// reconciled by the persistence layer on restart.
		p.logger.Info("Retry backoff interrupted by shutdown",
			slog.String("job_id", task.JobID),
		)
		return false
	}

	task.Status = domain.StatusQueued
	enqErr := p.queue.TryEnqueue(task)
	switch {
	case enqErr == nil:
		return false
	case errors.Is(enqErr, domain.ErrQueueFull):
		p.logger.Debug("Queue full, retrying task inline",
			slog.String("worker_name", workerName),
			slog.String("job_id", task.JobID),
		)
		return true
	default:
		p.logger.Info("Queue closed, abandoning retry",
			slog.String("job_id", task.JobID),
		)
		task.Status = domain.StatusFailed
		return false
	}
}

// deadLetter marks a task permanently failed and persists the failure
// record. Dead-lettered tasks count as settled, not as success.
func (p *workerPool) deadLetter(ctx context.Context, workerName string, task *domain.JobTask, cause error) {
	task.Status = domain.StatusDeadLettered
	task.Result = nil
	task.FailureReason = cause.Error()
	p.setCachedStatus(ctx, task)

	p.logger.Error("Task dead-lettered",
		slog.String("worker_name", workerName),
		slog.String("job_id", task.JobID),
		slog.Int("attempts", task.Attempts),
		slog.String("reason", task.FailureReason),
	)

	if err := p.store.SaveResult(ctx, task); err != nil {
		p.logger.Error("Failed to persist dead letter record",
			slog.String("job_id", task.JobID),
			slog.String("error", err.Error()),
		)
	}

	p.stats.RecordDeadLetter(fmt.Sprintf("job %s: %s", task.JobID, task.FailureReason))
	p.settled()
}

func (p *workerPool) setCachedStatus(ctx context.Context, task *domain.JobTask) {
	if p.cache == nil {
		return
	}

	if err := p.cache.SetJobStatus(ctx, task.JobID, task.Status); err != nil {
		p.logger.Debug("Failed to update status cache",
			slog.String("job_id", task.JobID),
			slog.String("error", err.Error()),
		)
	}
}
