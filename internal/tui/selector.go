package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/task"
)

// DropdownState is the display state of the interval menu.
type DropdownState int

const (
	DropdownClosed DropdownState = iota
	DropdownOpen
)

func (s DropdownState) String() string {
	if s == DropdownOpen {
		return "open"
	}
	return "closed"
}

// TaskSubmitter runs labelled work in the background. *task.Runner satisfies it.
type TaskSubmitter interface {
	Submit(label string, fn task.Func) *task.Handle
}

// UpdateFunc pushes a chosen interval to whoever owns the setting.
type UpdateFunc func(ctx context.Context, seconds uint64) error

// Selector is the poll interval dropdown. It tracks the last chosen entry
// but never renders it; the field shows the observed value instead.
type Selector struct {
	state    DropdownState
	selected interval.Interval
	cursor   int

	labels    interval.Labels
	taskLabel string
	runner    TaskSubmitter
	onUpdate  UpdateFunc

	last *task.Handle
}

// NewSelector creates a closed selector whose selection is the first catalog
// entry.
func NewSelector(labels interval.Labels, taskLabel string, runner TaskSubmitter, onUpdate UpdateFunc) Selector {
	first, _ := interval.At(0)
	return Selector{
		state:     DropdownClosed,
		selected:  first,
		labels:    labels,
		taskLabel: taskLabel,
		runner:    runner,
		onUpdate:  onUpdate,
	}
}

func (s Selector) State() DropdownState { return s.state }

func (s Selector) IsOpen() bool { return s.state == DropdownOpen }

// Selected returns the last chosen interval.
func (s Selector) Selected() interval.Interval { return s.selected }

// Cursor is the highlighted row while the menu is open.
func (s Selector) Cursor() int { return s.cursor }

// LastTask returns the most recently submitted update, if any.
func (s Selector) LastTask() *task.Handle { return s.last }

// Options returns the formatted catalog in menu order.
func (s Selector) Options() []string {
	cat := interval.Catalog()
	out := make([]string, len(cat))
	for i, iv := range cat {
		out[i] = iv.Format(s.labels)
	}
	return out
}

// Open shows the menu with the highlight on the current selection.
func (s *Selector) Open() {
	s.state = DropdownOpen
	if i := s.selected.Index(); i >= 0 {
		s.cursor = i
	}
}

// Dismiss closes the menu and leaves the selection alone.
func (s *Selector) Dismiss() {
	s.state = DropdownClosed
}

func (s *Selector) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *Selector) MoveDown() {
	if s.cursor < interval.Len()-1 {
		s.cursor++
	}
}

// Choose selects the highlighted row.
func (s *Selector) Choose() tea.Cmd {
	return s.SelectIndex(s.cursor)
}

// SelectIndex selects the catalog entry at i. Out of range indices are
// ignored and leave the menu as it was.
func (s *Selector) SelectIndex(i int) tea.Cmd {
	iv, ok := interval.At(i)
	if !ok {
		return nil
	}
	return s.Select(iv)
}

// Select records iv as the selection, closes the menu and confirms.
func (s *Selector) Select(iv interval.Interval) tea.Cmd {
	s.state = DropdownClosed
	s.selected = iv
	s.cursor = iv.Index()
	return s.Confirm()
}

// Confirm hands exactly one update for the current selection to the runner.
// The returned command reports the submitted task to the model.
func (s *Selector) Confirm() tea.Cmd {
	if s.runner == nil || s.onUpdate == nil {
		return nil
	}
	seconds := s.selected.Seconds()
	update := s.onUpdate
	h := s.runner.Submit(s.taskLabel, func(ctx context.Context) error {
		return update(ctx, seconds)
	})
	s.last = h
	return func() tea.Msg {
		return messages.TaskSubmittedMsg{TaskID: h.ID, Label: h.Label}
	}
}
