package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/task"
)

type updateRecorder struct {
	mu    sync.Mutex
	calls []uint64
	err   error
}

func (r *updateRecorder) update(ctx context.Context, seconds uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, seconds)
	return r.err
}

func (r *updateRecorder) Calls() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.calls...)
}

func newTestRunner(t *testing.T) *task.Runner {
	t.Helper()
	r := task.NewRunner(32, nil)
	t.Cleanup(r.Shutdown)
	return r
}

func waitDone(t *testing.T, h *task.Handle) {
	t.Helper()
	require.NotNil(t, h)
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestSelector_InitialState(t *testing.T) {
	s := NewSelector(interval.DefaultLabels(), "Updating poll interval", nil, nil)

	assert.Equal(t, DropdownClosed, s.State())
	assert.Equal(t, interval.Interval(15), s.Selected())
	assert.Nil(t, s.LastTask())
}

func TestSelector_OpenAndDismissKeepsSelection(t *testing.T) {
	rec := &updateRecorder{}
	s := NewSelector(interval.DefaultLabels(), "Updating poll interval", newTestRunner(t), rec.update)

	s.Open()
	assert.Equal(t, DropdownOpen, s.State())
	s.MoveDown()
	s.MoveDown()
	s.Dismiss()

	assert.Equal(t, DropdownClosed, s.State())
	assert.Equal(t, interval.Interval(15), s.Selected())
	assert.Nil(t, s.LastTask())
	assert.Empty(t, rec.Calls())
}

func TestSelector_SelectIndexConfirmsOnce(t *testing.T) {
	rec := &updateRecorder{}
	s := NewSelector(interval.DefaultLabels(), "Updating poll interval", newTestRunner(t), rec.update)

	s.Open()
	cmd := s.SelectIndex(3)
	require.NotNil(t, cmd)

	assert.Equal(t, DropdownClosed, s.State())
	assert.Equal(t, interval.Interval(150), s.Selected())

	h := s.LastTask()
	waitDone(t, h)
	assert.Equal(t, []uint64{150}, rec.Calls())
	assert.Equal(t, "Updating poll interval", h.Label)

	msg, ok := cmd().(messages.TaskSubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, h.ID, msg.TaskID)
	assert.Equal(t, "Updating poll interval", msg.Label)

	// Running the command again must not submit a second update.
	_ = cmd()
	assert.Equal(t, []uint64{150}, rec.Calls())
}

func TestSelector_SelectIndexOutOfRange(t *testing.T) {
	rec := &updateRecorder{}
	s := NewSelector(interval.DefaultLabels(), "x", newTestRunner(t), rec.update)

	s.Open()
	assert.Nil(t, s.SelectIndex(-1))
	assert.Nil(t, s.SelectIndex(interval.Len()))

	assert.Equal(t, DropdownOpen, s.State())
	assert.Equal(t, interval.Interval(15), s.Selected())
	assert.Empty(t, rec.Calls())
}

func TestSelector_CursorNavigation(t *testing.T) {
	rec := &updateRecorder{}
	s := NewSelector(interval.DefaultLabels(), "x", newTestRunner(t), rec.update)

	s.Open()
	assert.Equal(t, 0, s.Cursor())
	s.MoveUp()
	assert.Equal(t, 0, s.Cursor())

	for i := 0; i < 20; i++ {
		s.MoveDown()
	}
	assert.Equal(t, interval.Len()-1, s.Cursor())

	waitCmd := s.Choose()
	require.NotNil(t, waitCmd)
	waitDone(t, s.LastTask())
	assert.Equal(t, []uint64{3600}, rec.Calls())

	// Reopening highlights the last chosen entry.
	s.Open()
	assert.Equal(t, interval.Len()-1, s.Cursor())
}

func TestSelector_EverySelectionConfirms(t *testing.T) {
	rec := &updateRecorder{}
	s := NewSelector(interval.DefaultLabels(), "x", newTestRunner(t), rec.update)

	for _, iv := range []interval.Interval{30, 30, 600} {
		require.NotNil(t, s.Select(iv))
		waitDone(t, s.LastTask())
	}
	assert.Equal(t, []uint64{30, 30, 600}, rec.Calls())
}

func TestSelector_Options(t *testing.T) {
	s := NewSelector(interval.Labels{SecondsLabel: "s", MinutesLabel: "min"}, "x", nil, nil)
	assert.Equal(t, []string{
		"15 s", "30 s", "1 min", "2 min", "5 min", "10 min", "30 min", "60 min",
	}, s.Options())
}

func TestSelector_NoRunner(t *testing.T) {
	s := NewSelector(interval.DefaultLabels(), "x", nil, nil)
	assert.Nil(t, s.SelectIndex(2))
	assert.Equal(t, interval.Interval(60), s.Selected())
	assert.Equal(t, DropdownClosed, s.State())
}
