package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/youhavemail/yhm/internal/locale"
	"github.com/youhavemail/yhm/internal/messages"
	"github.com/youhavemail/yhm/internal/utils"
)

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case messages.PollIntervalMsg:
		m.observed = msg.Seconds
		m.hasObserved = true
		return m, listenForInterval(m.intervals)

	case messages.ServiceErrorMsg:
		utils.Debug("service error: %v", msg.Err)
		m.err = msg.Err
		return m, nil

	case messages.TaskSubmittedMsg:
		utils.Debug("submitted %s (%s)", msg.Label, msg.TaskID)
		return m, nil

	case messages.TaskStartedMsg:
		return m, listenForActivity(m.runner.Events())

	case messages.TaskFinishedMsg:
		cmds := []tea.Cmd{listenForActivity(m.runner.Events())}
		if msg.TaskID == m.activeTask {
			m.finishTask(statusDone, m.catalog.String(locale.KeyDone))
			cmds = append(cmds, clearStatusAfter(msg.TaskID, StatusLinger))
		}
		return m, tea.Batch(cmds...)

	case messages.TaskFailedMsg:
		cmds := []tea.Cmd{listenForActivity(m.runner.Events())}
		if msg.TaskID == m.activeTask {
			text := m.catalog.String(locale.KeyFailed)
			if msg.Canceled {
				text = m.catalog.String(locale.KeyCanceled)
			} else if msg.Err != nil {
				text += ": " + msg.Err.Error()
			}
			m.finishTask(statusFailed, text)
		}
		return m, tea.Batch(cmds...)

	case clearStatusMsg:
		if msg.taskID == m.activeTask && m.status == statusDone {
			m.status = statusNone
			m.statusText = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.status != statusRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SettingsModel) finishTask(kind statusKind, text string) {
	m.status = kind
	m.statusText = text
	m.keys.Cancel.SetEnabled(false)
}

func clearStatusAfter(taskID string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{taskID: taskID}
	})
}

func (m SettingsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.selector.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			m.selector.Dismiss()
		case key.Matches(msg, m.keys.Up):
			m.selector.MoveUp()
		case key.Matches(msg, m.keys.Down):
			m.selector.MoveDown()
		case key.Matches(msg, m.keys.Choose):
			return m.track(m.selector.Choose())
		case key.Matches(msg, m.keys.Pick):
			return m.track(m.selector.SelectIndex(pickIndex(msg)))
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		m.selector.Open()
	case key.Matches(msg, m.keys.Cancel):
		if m.runner != nil && m.activeTask != "" {
			m.runner.Cancel(m.activeTask)
		}
	case key.Matches(msg, m.keys.Back):
		if m.callbacks.OnBackClicked != nil {
			m.callbacks.OnBackClicked()
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// track marks the selector's newest task as the one shown in the status line.
func (m SettingsModel) track(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	h := m.selector.LastTask()
	if cmd == nil || h == nil || h.ID == m.activeTask {
		return m, cmd
	}
	m.activeTask = h.ID
	m.status = statusRunning
	m.statusText = h.Label
	m.keys.Cancel.SetEnabled(true)
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// pickIndex maps the digit keys 1..8 to catalog indices 0..7.
func pickIndex(msg tea.KeyMsg) int {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return -1
	}
	return int(s[0] - '1')
}
