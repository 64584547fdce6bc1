// Package worker is the asynchronous task dispatcher used for physical
// storage work (secure unlink, collection erasure) that must not block the
// requesting transaction. Execution is best-effort: failures are logged, never
// surfaced to the enqueuer, and there is no ordering guarantee between
// independently enqueued tasks.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskFunc is the unit of background work.
type TaskFunc func(ctx context.Context) error

// TaskHandle identifies an enqueued task. Done is closed once the task has
// finished (successfully or not); callers must not gate user-visible state on
// it, but tests may wait on it.
type TaskHandle struct {
	ID   string
	Kind string
	Done <-chan struct{}
}

// Dispatcher accepts fire-and-forget tasks.
type Dispatcher interface {
	Enqueue(kind string, fn TaskFunc) TaskHandle
}

type task struct {
	id   string
	kind string
	fn   TaskFunc
	done chan struct{}
}

// Pool runs tasks on a fixed number of workers with a bounded queue.
type Pool struct {
	logger  *slog.Logger
	tasks   chan task
	timeout time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPool creates a dispatcher with the given worker count and queue depth.
// Zero or negative arguments fall back to sane defaults.
func NewPool(workers, queueDepth int, timeout time.Duration, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		logger:  logger,
		tasks:   make(chan task, queueDepth),
		timeout: timeout,
	}

	p.wg.Add(workers)
	for range workers {
		go p.run()
	}

	return p
}

// Enqueue submits a task. It blocks only while the queue is full, never on
// task execution.
func (p *Pool) Enqueue(kind string, fn TaskFunc) TaskHandle {
	t := task{
		id:   uuid.NewString(),
		kind: kind,
		fn:   fn,
		done: make(chan struct{}),
	}

	p.tasks <- t
	p.logger.Debug("task enqueued", "task_id", t.id, "kind", kind)

	return TaskHandle{ID: t.id, Kind: kind, Done: t.done}
}

// Stop drains queued tasks and waits for in-flight work to finish.
// The pool cannot be reused after Stop.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()

	for t := range p.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := t.fn(ctx); err != nil {
			// Classification only: task payloads may reference sensitive paths.
			p.logger.Error("background task failed", "task_id", t.id, "kind", t.kind, "err", err)
		} else {
			p.logger.Debug("background task finished", "task_id", t.id, "kind", t.kind)
		}
		cancel()
		close(t.done)
	}
}
