package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/youhavemail/yhm/internal/locale"
	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/task"
)

// Callbacks are the actions the settings screen hands back to its owner.
type Callbacks struct {
	OnBackClicked        func()
	OnPollIntervalUpdate func(ctx context.Context, seconds uint64) error
}

type statusKind int

const (
	statusNone statusKind = iota
	statusRunning
	statusDone
	statusFailed
)

// ErrIntervalStreamClosed is shown when the service stops publishing.
var ErrIntervalStreamClosed = errors.New("poll interval updates stopped")

// clearStatusMsg hides a finished task's status if it is still the latest.
type clearStatusMsg struct {
	taskID string
}

type SettingsModel struct {
	catalog   *locale.Catalog
	runner    *task.Runner
	intervals <-chan uint64
	callbacks Callbacks

	selector Selector

	observed    uint64
	hasObserved bool

	activeTask string
	status     statusKind
	statusText string
	spinner    spinner.Model

	keys keyMap
	help help.Model

	width    int
	height   int
	quitting bool
	err      error
}

// NewSettingsModel wires the screen to a runner and an observed interval
// stream. intervals may be nil when no service is available.
func NewSettingsModel(cat *locale.Catalog, runner *task.Runner, intervals <-chan uint64, cb Callbacks) SettingsModel {
	var submitter TaskSubmitter
	if runner != nil {
		submitter = runner
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	keys := defaultKeyMap()
	keys.Back.SetHelp("esc/q", cat.String(locale.KeyBack))

	return SettingsModel{
		catalog:   cat,
		runner:    runner,
		intervals: intervals,
		callbacks: cb,
		selector:  NewSelector(cat.Labels(), cat.String(locale.KeyUpdatePollInterval), submitter, cb.OnPollIntervalUpdate),
		spinner:   s,
		keys:      keys,
		help:      help.New(),
	}
}

func (m SettingsModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.runner != nil {
		cmds = append(cmds, listenForActivity(m.runner.Events()))
	}
	if m.intervals != nil {
		cmds = append(cmds, listenForInterval(m.intervals))
	}
	return tea.Batch(cmds...)
}

// Selector exposes the dropdown state.
func (m SettingsModel) Selector() Selector {
	return m.selector
}

// Observed returns the last interval reported by the service.
func (m SettingsModel) Observed() (uint64, bool) {
	return m.observed, m.hasObserved
}

func listenForActivity(sub <-chan any) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-sub
		if !ok {
			return nil
		}
		return msg
	}
}

func listenForInterval(sub <-chan uint64) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-sub
		if !ok {
			return messages.ServiceErrorMsg{Err: ErrIntervalStreamClosed}
		}
		return messages.PollIntervalMsg{Seconds: v}
	}
}
