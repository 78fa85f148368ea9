package queue

import (
	"context"
	"sync"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// TaskQueue is a bounded FIFO hand-off buffer between producers and the
// worker pool. Enqueue blocks when the queue is at capacity, which is
// what gives producers backpressure.
//
// Close is a terminal, one-way operation: pending Dequeue calls drain the
// remaining items and then observe ErrQueueClosed; no further Enqueue is
// accepted. The underlying channel is never closed, so a racing Enqueue
// can never panic; it observes the done signal instead.
type TaskQueue struct {
	tasks chan *domain.JobTask
	done  chan struct{}
	once  sync.Once
}

// NewTaskQueue creates a queue with the given fixed capacity.
func NewTaskQueue(capacity int) *TaskQueue {
	return &TaskQueue{
		tasks: make(chan *domain.JobTask, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a task, blocking while the queue is full. It returns
// ErrQueueClosed after Close and the context error if ctx is canceled
// while waiting for space. A send racing Close may still land in the
// buffer; the owner of the queue settles such stragglers after the
// consumers exit.
func (q *TaskQueue) Enqueue(ctx context.Context, task *domain.JobTask) error {
	select {
	case <-q.done:
		return domain.ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue adds a task without blocking. It returns ErrQueueFull when
// the queue is at capacity.
func (q *TaskQueue) TryEnqueue(task *domain.JobTask) error {
	select {
	case <-q.done:
		return domain.ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue removes the oldest task, blocking until one is available. After
// Close it keeps draining buffered items and returns ErrQueueClosed once
// the queue is empty.
func (q *TaskQueue) Dequeue(ctx context.Context) (*domain.JobTask, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	default:
	}

	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.done:
		// Drain whatever was buffered before the close.
		select {
		case task := <-q.tasks:
			return task, nil
		default:
			return nil, domain.ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the queue closed. Safe to call more than once.
func (q *TaskQueue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
}

// Closed reports whether Close has been called.
func (q *TaskQueue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Depth returns the number of buffered tasks.
func (q *TaskQueue) Depth() int {
	return len(q.tasks)
}
