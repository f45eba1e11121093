package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/metrics"
)

func nextEvent(t *testing.T, r *Runner) any {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task event")
		return nil
	}
}

func TestRunner_Success(t *testing.T) {
	m := metrics.New()
	r := NewRunner(10, m)
	defer r.Shutdown()

	calls := 0
	h := r.Submit("updating poll interval", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NotEmpty(t, h.ID)

	started, ok := nextEvent(t, r).(messages.TaskStartedMsg)
	require.True(t, ok)
	assert.Equal(t, h.ID, started.TaskID)
	assert.Equal(t, "updating poll interval", started.Label)

	finished, ok := nextEvent(t, r).(messages.TaskFinishedMsg)
	require.True(t, ok)
	assert.Equal(t, h.ID, finished.TaskID)

	<-h.Done()
	assert.NoError(t, h.Err())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.Active())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksSubmitted.WithLabelValues("updating poll interval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksCompleted.WithLabelValues("updating poll interval", metrics.OutcomeSuccess)))
}

func TestRunner_Failure(t *testing.T) {
	r := NewRunner(10, nil)
	defer r.Shutdown()

	boom := errors.New("backend unavailable")
	h := r.Submit("x", func(ctx context.Context) error { return boom })

	_ = nextEvent(t, r)
	failed, ok := nextEvent(t, r).(messages.TaskFailedMsg)
	require.True(t, ok)
	assert.Equal(t, h.ID, failed.TaskID)
	assert.ErrorIs(t, failed.Err, boom)
	assert.False(t, failed.Canceled)

	<-h.Done()
	assert.ErrorIs(t, h.Err(), boom)
}

func TestRunner_Cancel(t *testing.T) {
	r := NewRunner(10, nil)
	defer r.Shutdown()

	running := make(chan struct{})
	h := r.Submit("slow", func(ctx context.Context) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})

	<-running
	assert.Equal(t, 1, r.Active())
	assert.True(t, r.Cancel(h.ID))

	_ = nextEvent(t, r)
	failed, ok := nextEvent(t, r).(messages.TaskFailedMsg)
	require.True(t, ok)
	assert.True(t, failed.Canceled)
	assert.ErrorIs(t, h.Err(), context.Canceled)

	assert.False(t, r.Cancel(h.ID), "finished task can no longer be canceled")
	assert.False(t, r.Cancel("unknown"))
}

func TestRunner_ErrBeforeDone(t *testing.T) {
	r := NewRunner(10, nil)
	defer r.Shutdown()

	release := make(chan struct{})
	h := r.Submit("blocked", func(ctx context.Context) error {
		<-release
		return errors.New("late")
	})
	assert.NoError(t, h.Err(), "Err is nil until the task returns")
	close(release)
	<-h.Done()
	assert.Error(t, h.Err())
}

func TestRunner_ShutdownCancelsRunning(t *testing.T) {
	r := NewRunner(1, nil)

	h := r.Submit("forever", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan struct{})
	go func() {
		r.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	assert.ErrorIs(t, h.Err(), context.Canceled)
}
