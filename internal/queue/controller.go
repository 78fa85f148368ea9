package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// barrierPollInterval is how often WaitForCompletion re-checks the
// queue depth and in-flight count.
const barrierPollInterval = 20 * time.Millisecond

// Config holds queue controller configuration.
type Config struct {
	NumWorkers         int
	QueueCapacity      int
	MaxAttempts        int
	BaseBackoff        time.Duration
	MaxBackoff         time.Duration
	StatsFlushInterval time.Duration
	StatsFlushEvery    int
}

// Controller is the facade over the processing core: it owns the dedup
// index, the bounded task queue, the worker pool and the stats
// aggregator, and exposes the submission and lifecycle API.
type Controller struct {
	logger *slog.Logger
	cfg    Config

	analyzer Analyzer
	store    Store
	cache    StatusCache
	callback StatsCallback

	mu      sync.Mutex
	started bool
	stopped bool
	queue   *TaskQueue
	dedup   *DedupIndex
	pool    *workerPool
	stats   *StatsAggregator
	cancel  context.CancelFunc

	// pending counts admitted tasks that have not reached a terminal
	// status. Dead-lettered tasks count as settled, not as success.
	pending atomic.Int64
}

// NewController creates a controller. cache and callback may be nil.
func NewController(logger *slog.Logger, cfg Config, analyzer Analyzer, store Store, cache StatusCache, callback StatsCallback) *Controller {
	c := &Controller{
		logger:   logger,
		cfg:      cfg,
		analyzer: analyzer,
		store:    store,
		cache:    cache,
		callback: callback,
	}

	c.queue = NewTaskQueue(cfg.QueueCapacity)
	c.dedup = NewDedupIndex()
	c.stats = NewStatsAggregator(logger, c.queue.Depth, callback, cfg.StatsFlushInterval, cfg.StatsFlushEvery)
	c.pool = newWorkerPool(
		logger,
		c.queue,
		analyzer,
		store,
		cache,
		c.stats,
		NewBackoffPolicy(cfg.BaseBackoff, cfg.MaxBackoff),
		cfg.MaxAttempts,
		func() { c.pending.Add(-1) },
	)

	return c
}

// Start spins up the worker pool. Calling Start on a running controller
// is a no-op that logs a warning; a non-positive worker count fails fast.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.NumWorkers <= 0 {
		return fmt.Errorf("num_workers must be greater than 0, got %d", c.cfg.NumWorkers)
	}
	if c.cfg.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be greater than 0, got %d", c.cfg.MaxAttempts)
	}
	if c.started {
		c.logger.Warn("Controller already started, ignoring Start")
		return nil
	}
	if c.stopped {
		return fmt.Errorf("controller has been stopped and cannot be restarted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.stats.Start()
	c.pool.start(ctx, c.cfg.NumWorkers)
	c.started = true

	c.logger.Info("Queue controller started",
		slog.Int("num_workers", c.cfg.NumWorkers),
		slog.Int("queue_capacity", c.cfg.QueueCapacity),
		slog.Int("max_attempts", c.cfg.MaxAttempts),
	)

	return nil
}

// Submit dedup-checks and enqueues a task. It returns true when the task
// was newly admitted; a task whose job ID was already seen this run is
// silently skipped and reported as false.
func (c *Controller) Submit(ctx context.Context, task *domain.JobTask) (bool, error) {
	if task == nil {
		return false, fmt.Errorf("%w: nil task", domain.ErrInvalidTask)
	}

	if !c.dedup.Admit(task.JobID) {
		c.logger.Debug("Duplicate job skipped",
			slog.String("job_id", task.JobID),
			slog.String("title", task.Title),
		)
		return false, nil
	}

	task.Status = domain.StatusQueued
	c.pending.Add(1)
	if err := c.queue.Enqueue(ctx, task); err != nil {
		c.pending.Add(-1)
		return false, fmt.Errorf("failed to enqueue job %s: %w", task.JobID, err)
	}

	return true, nil
}

// SubmitBatch submits each task in order. Partial admission is expected:
// already-seen jobs are skipped and do not count as errors. It returns
// the number of newly admitted tasks.
func (c *Controller) SubmitBatch(ctx context.Context, tasks []*domain.JobTask) (int, error) {
	admitted := 0
	for _, task := range tasks {
		ok, err := c.Submit(ctx, task)
		if err != nil {
			return admitted, err
		}
		if ok {
			admitted++
		}
	}

	c.logger.Info("Batch submitted",
		slog.Int("total", len(tasks)),
		slog.Int("admitted", admitted),
		slog.Int("skipped", len(tasks)-admitted),
	)

	return admitted, nil
}

// WaitForCompletion blocks until the queue is empty and no worker is
// mid-task, or the timeout elapses. The barrier is two-phase: queue
// emptiness first, then in-flight settlement, re-checked together so a
// retry that requeues a task cannot slip through the gap.
func (c *Controller) WaitForCompletion(timeout time.Duration) (bool, StatsView) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(barrierPollInterval)
	defer ticker.Stop()

	for {
		// Phase 1: queue emptiness. Phase 2: every admitted task has
		// settled, which also covers a worker still holding the last
		// item after the queue drained.
		if c.queue.Depth() == 0 && c.pending.Load() == 0 && c.pool.InFlight() == 0 {
			return true, c.stats.Snapshot()
		}

		if time.Now().After(deadline) {
			return false, c.stats.Snapshot()
		}

		<-ticker.C
	}
}

// Stop closes the queue, waits for workers to drain and exit, and
// flushes the final stats snapshot. Safe to call without Start and safe
// to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	wasStarted := c.started
	c.mu.Unlock()

	c.logger.Info("Stopping queue controller")

	c.queue.Close()

	if wasStarted {
		c.pool.wait()
		if c.cancel != nil {
			c.cancel()
		}
	}

	// A Submit racing Close can land a task in the buffer after the
	// workers have drained and exited. Settle whatever is left so no
	// admitted task is stranded with its pending count.
	for {
		task, err := c.queue.Dequeue(context.Background())
		if err != nil {
			break
		}
		task.Status = domain.StatusFailed
		c.pending.Add(-1)
		c.logger.Warn("Task abandoned at shutdown",
			slog.String("job_id", task.JobID),
		)
	}

	c.stats.Stop()
	c.logger.Info("Queue controller stopped")
}

// StatsSnapshot returns the current stats view.
func (c *Controller) StatsSnapshot() StatsView {
	return c.stats.Snapshot()
}
