package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open    key.Binding
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	Pick    key.Binding
	Dismiss key.Binding
	Back    key.Binding
	Cancel  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Open: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "change"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "choose"),
		),
		Pick: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"),
			key.WithHelp("1-8", "pick"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc/q", "back"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel update"),
			key.WithDisabled(),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// closedKeys and openKeys implement help.KeyMap for each dropdown state.
type closedKeys struct{ keyMap }

func (k closedKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Cancel, k.Back, k.Help}
}

func (k closedKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open},
		{k.Cancel},
		{k.Back, k.Help, k.Quit},
	}
}

type openKeys struct{ keyMap }

func (k openKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Dismiss}
}

func (k openKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Choose, k.Pick},
		{k.Dismiss, k.Help, k.Quit},
	}
}
