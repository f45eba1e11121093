// Package task runs labelled background operations and reports their status
// as messages the TUI can consume.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/metrics"
	"github.com/youhavemail/yhm/internal/utils"
)

// Func is the unit of work handed to the runner.
type Func func(ctx context.Context) error

// Handle refers to one submitted task.
type Handle struct {
	ID    string
	Label string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel asks the task to stop. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the task has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task result. Only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Runner executes tasks in their own goroutines. There is no retry; a failed
// task is reported once and forgotten.
type Runner struct {
	events  chan any
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active map[string]*Handle
	wg     sync.WaitGroup
}

// NewRunner creates a runner whose status channel holds up to buffer events.
// m may be nil.
func NewRunner(buffer int, m *metrics.Metrics) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		events:  make(chan any, buffer),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		active:  make(map[string]*Handle),
	}
}

// Events returns the status stream (TaskStartedMsg, TaskFinishedMsg, TaskFailedMsg).
func (r *Runner) Events() <-chan any {
	return r.events
}

// Submit starts fn in the background and returns immediately.
func (r *Runner) Submit(label string, fn Func) *Handle {
	ctx, cancel := context.WithCancel(r.ctx)
	h := &Handle{
		ID:     uuid.New().String(),
		Label:  label,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.active[h.ID] = h
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.TasksSubmitted.WithLabelValues(label).Inc()
	}

	r.wg.Add(1)
	go r.run(ctx, h, fn)
	return h
}

// Cancel cancels the task with the given ID. It reports whether the task was
// still running.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	h, ok := r.active[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	h.Cancel()
	return true
}

// Active returns the number of tasks that have not returned yet.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Shutdown cancels every running task and waits for them to return.
func (r *Runner) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, h *Handle, fn Func) {
	defer r.wg.Done()
	defer h.cancel()

	start := time.Now()
	r.emit(messages.TaskStartedMsg{TaskID: h.ID, Label: h.Label})
	utils.Debug("task %s started: %s", h.ID[:8], h.Label)

	err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	h.err = err
	r.mu.Lock()
	delete(r.active, h.ID)
	r.mu.Unlock()
	close(h.done)

	canceled := errors.Is(err, context.Canceled)
	switch {
	case err == nil:
		utils.Debug("task %s finished in %s", h.ID[:8], time.Since(start))
		r.record(h.Label, metrics.OutcomeSuccess)
		r.emit(messages.TaskFinishedMsg{TaskID: h.ID, Label: h.Label, Elapsed: time.Since(start)})
	case canceled:
		utils.Debug("task %s canceled", h.ID[:8])
		r.record(h.Label, metrics.OutcomeCanceled)
		r.emit(messages.TaskFailedMsg{TaskID: h.ID, Label: h.Label, Err: err, Canceled: true})
	default:
		utils.Error("task %s (%s) failed: %v", h.ID[:8], h.Label, err)
		r.record(h.Label, metrics.OutcomeFailure)
		r.emit(messages.TaskFailedMsg{TaskID: h.ID, Label: h.Label, Err: err})
	}
}

func (r *Runner) record(label, outcome string) {
	if r.metrics != nil {
		r.metrics.TasksCompleted.WithLabelValues(label, outcome).Inc()
	}
}

// emit blocks until the event is consumed or the runner shuts down.
func (r *Runner) emit(msg any) {
	select {
	case r.events <- msg:
	case <-r.ctx.Done():
		// Shutting down: keep the event if there is room, drop otherwise.
		select {
		case r.events <- msg:
		default:
		}
	}
}
