package queue

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// recentFailureLimit bounds the ring of failure reasons kept for operator
// visibility.
const recentFailureLimit = 32

// StatsView is a consistent point-in-time copy of the aggregator counters.
type StatsView struct {
	TotalProcessed int64     `json:"total_processed"`
	Succeeded      int64     `json:"succeeded"`
	Failed         int64     `json:"failed"`
	DeadLettered   int64     `json:"dead_lettered"`
	Retried        int64     `json:"retried"`
	PrimaryCount   int64     `json:"primary_count"`
	SecondaryCount int64     `json:"secondary_count"`
	RuleBasedCount int64     `json:"rule_based_count"`
	QueueDepth     int       `json:"queue_depth"`
	RecentFailures []string  `json:"recent_failures,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// StatsCallback receives snapshots pushed to an observing dashboard.
type StatsCallback func(view StatsView)

// StatsAggregator maintains processing counters and pushes periodic
// snapshots to a dashboard callback. Increments are atomic and
// fire-and-forget; the callback runs on its own notifier goroutine so a
// slow dashboard can never stall workers.
type StatsAggregator struct {
	logger *slog.Logger

	totalProcessed atomic.Int64
	succeeded      atomic.Int64
	failed         atomic.Int64
	deadLettered   atomic.Int64
	retried        atomic.Int64
	primaryCount   atomic.Int64
	secondaryCount atomic.Int64
	ruleBasedCount atomic.Int64

	completions atomic.Int64

	failMu   sync.Mutex
	failures []string

	depthFn func() int

	callback      StatsCallback
	flushInterval time.Duration
	flushEvery    int64

	notifyCh chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStatsAggregator creates an aggregator. depthFn reports the current
// queue depth and callback may be nil when no dashboard is attached.
func NewStatsAggregator(logger *slog.Logger, depthFn func() int, callback StatsCallback, flushInterval time.Duration, flushEvery int) *StatsAggregator {
	if flushEvery <= 0 {
		flushEvery = 1
	}

	return &StatsAggregator{
		logger:        logger,
		depthFn:       depthFn,
		callback:      callback,
		flushInterval: flushInterval,
		flushEvery:    int64(flushEvery),
		notifyCh:      make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

// Start launches the notifier goroutine.
func (s *StatsAggregator) Start() {
	s.wg.Add(1)
	go s.notifyLoop()
}

// Stop flushes a final snapshot and stops the notifier. Safe to call
// even if Start was never called.
func (s *StatsAggregator) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()

	if s.callback != nil {
		s.callback(s.Snapshot())
	}
}

// RecordSuccess counts a completed task and its analysis method.
func (s *StatsAggregator) RecordSuccess(method string) {
	s.totalProcessed.Add(1)
	s.succeeded.Add(1)
	s.recordMethod(method)
	s.completed()
}

// RecordRetry counts a failed attempt that will be requeued.
func (s *StatsAggregator) RecordRetry(reason string) {
	s.failed.Add(1)
	s.retried.Add(1)
	s.recordFailureReason(reason)
}

// RecordDeadLetter counts a task that exhausted retries or was rejected
// as permanently invalid.
func (s *StatsAggregator) RecordDeadLetter(reason string) {
	s.totalProcessed.Add(1)
	s.failed.Add(1)
	s.deadLettered.Add(1)
	s.recordFailureReason(reason)
	s.completed()
}

// Snapshot returns a point-in-time copy of all counters.
func (s *StatsAggregator) Snapshot() StatsView {
	s.failMu.Lock()
	failures := make([]string, len(s.failures))
	copy(failures, s.failures)
	s.failMu.Unlock()

	depth := 0
	if s.depthFn != nil {
		depth = s.depthFn()
	}

	return StatsView{
		TotalProcessed: s.totalProcessed.Load(),
		Succeeded:      s.succeeded.Load(),
		Failed:         s.failed.Load(),
		DeadLettered:   s.deadLettered.Load(),
		Retried:        s.retried.Load(),
		PrimaryCount:   s.primaryCount.Load(),
		SecondaryCount: s.secondaryCount.Load(),
		RuleBasedCount: s.ruleBasedCount.Load(),
		QueueDepth:     depth,
		RecentFailures: failures,
		Timestamp:      time.Now().UTC(),
	}
}

func (s *StatsAggregator) recordMethod(method string) {
	switch method {
	case domain.MethodPrimary:
		s.primaryCount.Add(1)
	case domain.MethodSecondary:
		s.secondaryCount.Add(1)
	case domain.MethodRuleBased:
		s.ruleBasedCount.Add(1)
	}
}

func (s *StatsAggregator) recordFailureReason(reason string) {
	if reason == "" {
		return
	}

	s.failMu.Lock()
	s.failures = append(s.failures, reason)
	if len(s.failures) > recentFailureLimit {
		s.failures = s.failures[len(s.failures)-recentFailureLimit:]
	}
	s.failMu.Unlock()
}

// completed nudges the notifier after every flushEvery-th completion.
// The send never blocks: if a notification is already pending the new
// one is coalesced into it.
func (s *StatsAggregator) completed() {
	if s.completions.Add(1)%s.flushEvery != 0 {
		return
	}

	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

func (s *StatsAggregator) notifyLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.emit()
		case <-s.notifyCh:
			s.emit()
			ticker.Reset(s.flushInterval)
		}
	}
}

func (s *StatsAggregator) emit() {
	if s.callback == nil {
		return
	}

	view := s.Snapshot()
	s.callback(view)

	s.logger.Debug("Stats snapshot emitted",
		slog.Int64("total_processed", view.TotalProcessed),
		slog.Int64("succeeded", view.Succeeded),
		slog.Int64("dead_lettered", view.DeadLettered),
		slog.Int("queue_depth", view.QueueDepth),
	)
}
