package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/locale"
)

func (m SettingsModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		TitleStyle.Render(m.catalog.String(locale.KeySettings)),
		"",
		CaptionStyle.Render(m.catalog.String(locale.KeyPollInterval)),
		DescriptionStyle.Width(FieldWidth * 2).Render(m.catalog.String(locale.KeyPollIntervalDesc)),
		"",
		m.renderField(),
	}

	if m.selector.IsOpen() {
		sections = append(sections, m.renderMenu())
	}

	if line := m.renderStatus(); line != "" {
		sections = append(sections, "", line)
	}

	var helpView string
	if m.selector.IsOpen() {
		helpView = m.help.View(openKeys{m.keys})
	} else {
		helpView = m.help.View(closedKeys{m.keys})
	}
	sections = append(sections, "", helpView)

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// FieldText is what the read-only field shows: the observed interval.
func (m SettingsModel) FieldText() string {
	if !m.hasObserved {
		return NoValuePlaceholder
	}
	return interval.FormatSeconds(m.observed, m.catalog.Labels())
}

func (m SettingsModel) renderField() string {
	arrow := "▾"
	style := FieldStyle
	if m.selector.IsOpen() {
		arrow = "▴"
		style = FocusedFieldStyle
	}

	text := m.FieldText()
	gap := FieldWidth - 2*DefaultPaddingX - lipgloss.Width(text) - lipgloss.Width(arrow)
	if gap < 1 {
		gap = 1
	}
	return style.Render(text + strings.Repeat(" ", gap) + arrow)
}

func (m SettingsModel) renderMenu() string {
	options := m.selector.Options()
	lines := make([]string, len(options))
	for i, opt := range options {
		if i == m.selector.Cursor() {
			lines[i] = SelectedItemStyle.Render("> " + opt)
		} else {
			lines[i] = ItemStyle.Render("  " + opt)
		}
	}
	return MenuStyle.Render(strings.Join(lines, "\n"))
}

func (m SettingsModel) renderStatus() string {
	var line string
	switch m.status {
	case statusRunning:
		line = m.spinner.View() + " " + StatusStyle.Render(m.statusText)
	case statusDone:
		line = SuccessStyle.Render("✔ " + m.statusText)
	case statusFailed:
		line = ErrorStyle.Render("✘ " + m.statusText)
	}

	if m.err != nil {
		errLine := ErrorStyle.Render(m.err.Error())
		if line == "" {
			return errLine
		}
		return line + "\n" + errLine
	}
	return line
}
