package queue

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsAggregator_Snapshot(t *testing.T) {
	stats := NewStatsAggregator(discardLogger(), func() int { return 7 }, nil, time.Minute, 100)

	stats.RecordSuccess(domain.MethodPrimary)
	stats.RecordSuccess(domain.MethodPrimary)
	stats.RecordSuccess(domain.MethodSecondary)
	stats.RecordSuccess(domain.MethodRuleBased)
	stats.RecordRetry("transient store error")
	stats.RecordDeadLetter("max attempts exceeded")

	view := stats.Snapshot()

	assert.Equal(t, int64(5), view.TotalProcessed)
	assert.Equal(t, int64(4), view.Succeeded)
	assert.Equal(t, int64(2), view.Failed)
	assert.Equal(t, int64(1), view.DeadLettered)
	assert.Equal(t, int64(1), view.Retried)
	assert.Equal(t, int64(2), view.PrimaryCount)
	assert.Equal(t, int64(1), view.SecondaryCount)
	assert.Equal(t, int64(1), view.RuleBasedCount)
	assert.Equal(t, 7, view.QueueDepth)
	assert.Equal(t, []string{"transient store error", "max attempts exceeded"}, view.RecentFailures)
	assert.False(t, view.Timestamp.IsZero())
}

func TestStatsAggregator_RecentFailuresBounded(t *testing.T) {
	stats := NewStatsAggregator(discardLogger(), nil, nil, time.Minute, 100)

	for i := 0; i < recentFailureLimit+10; i++ {
		stats.RecordRetry(fmt.Sprintf("failure %d", i))
	}

	view := stats.Snapshot()
	require.Len(t, view.RecentFailures, recentFailureLimit)

	// Oldest entries are evicted first.
	assert.Equal(t, "failure 10", view.RecentFailures[0])
	assert.Equal(t, fmt.Sprintf("failure %d", recentFailureLimit+9), view.RecentFailures[recentFailureLimit-1])
}

func TestStatsAggregator_CompletionFlush(t *testing.T) {
	views := make(chan StatsView, 10)
	callback := func(view StatsView) {
		views <- view
	}

	stats := NewStatsAggregator(discardLogger(), func() int { return 0 }, callback, time.Hour, 2)
	stats.Start()
	defer stats.Stop()

	stats.RecordSuccess(domain.MethodPrimary)
	stats.RecordSuccess(domain.MethodPrimary)

	select {
	case view := <-views:
		assert.GreaterOrEqual(t, view.TotalProcessed, int64(2))
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot pushed after flush threshold reached")
	}
}

func TestStatsAggregator_IntervalFlush(t *testing.T) {
	views := make(chan StatsView, 10)
	callback := func(view StatsView) {
		views <- view
	}

	stats := NewStatsAggregator(discardLogger(), nil, callback, 20*time.Millisecond, 1000)
	stats.Start()
	defer stats.Stop()

	stats.RecordSuccess(domain.MethodRuleBased)

	select {
	case view := <-views:
		assert.Equal(t, int64(1), view.TotalProcessed)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot pushed on the flush interval")
	}
}

func TestStatsAggregator_StopFlushesFinalSnapshot(t *testing.T) {
	views := make(chan StatsView, 10)
	callback := func(view StatsView) {
		views <- view
	}

	stats := NewStatsAggregator(discardLogger(), nil, callback, time.Hour, 1000)
	stats.Start()

	stats.RecordSuccess(domain.MethodPrimary)
	stats.Stop()

	select {
	case view := <-views:
		assert.Equal(t, int64(1), view.Succeeded)
	default:
		t.Fatal("Stop did not flush a final snapshot")
	}
}

func TestStatsAggregator_StopWithoutStart(t *testing.T) {
	stats := NewStatsAggregator(discardLogger(), nil, nil, time.Minute, 1)
	stats.Stop()
}
