package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/youhavemail/yhm/internal/config"
)

// Palette holds the colors for one theme.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Text      lipgloss.Color
	Subtext   lipgloss.Color
	Border    lipgloss.Color
}

var (
	DarkPalette = Palette{
		Primary:   lipgloss.Color("#bd93f9"), // Dracula Purple
		Secondary: lipgloss.Color("#ff79c6"), // Dracula Pink
		Success:   lipgloss.Color("#50fa7b"), // Dracula Green
		Error:     lipgloss.Color("#ff5555"), // Dracula Red
		Text:      lipgloss.Color("#f8f8f2"), // Dracula Foreground
		Subtext:   lipgloss.Color("#6272a4"), // Dracula Comment
		Border:    lipgloss.Color("#44475a"), // Dracula Selection
	}

	LightPalette = Palette{
		Primary:   lipgloss.Color("#7c3aed"),
		Secondary: lipgloss.Color("#db2777"),
		Success:   lipgloss.Color("#15803d"),
		Error:     lipgloss.Color("#b91c1c"),
		Text:      lipgloss.Color("#1f2937"),
		Subtext:   lipgloss.Color("#6b7280"),
		Border:    lipgloss.Color("#d1d5db"),
	}
)

// Styles used by the settings screen. Rebuilt by ApplyTheme.
var (
	AppStyle          lipgloss.Style
	TitleStyle        lipgloss.Style
	CaptionStyle      lipgloss.Style
	DescriptionStyle  lipgloss.Style
	FieldStyle        lipgloss.Style
	FocusedFieldStyle lipgloss.Style
	MenuStyle         lipgloss.Style
	ItemStyle         lipgloss.Style
	SelectedItemStyle lipgloss.Style
	StatusStyle       lipgloss.Style
	SuccessStyle      lipgloss.Style
	ErrorStyle        lipgloss.Style
)

func init() {
	ApplyTheme(config.ThemeDark)
}

// ApplyTheme rebuilds the styles for theme. ThemeAdaptive asks the terminal
// for its background color.
func ApplyTheme(theme int) {
	p := DarkPalette
	switch theme {
	case config.ThemeLight:
		p = LightPalette
	case config.ThemeAdaptive:
		if !termenv.HasDarkBackground() {
			p = LightPalette
		}
	}
	buildStyles(p)
}

func buildStyles(p Palette) {
	AppStyle = lipgloss.NewStyle().
		Padding(ScreenPaddingY, ScreenPaddingX).
		Foreground(p.Text)

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Padding(DefaultPaddingY, DefaultPaddingX).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary)

	CaptionStyle = lipgloss.NewStyle().
		Foreground(p.Subtext).
		Bold(true)

	DescriptionStyle = lipgloss.NewStyle().
		Foreground(p.Text)

	FieldStyle = lipgloss.NewStyle().
		Width(FieldWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(DefaultPaddingY, DefaultPaddingX)

	FocusedFieldStyle = FieldStyle.
		BorderForeground(p.Secondary)

	MenuStyle = lipgloss.NewStyle().
		Width(FieldWidth).
		Border(lipgloss.NormalBorder()).
		BorderForeground(p.Secondary).
		Padding(DefaultPaddingY, DefaultPaddingX)

	ItemStyle = lipgloss.NewStyle().
		Foreground(p.Text)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)

	StatusStyle = lipgloss.NewStyle().
		Foreground(p.Subtext).
		Italic(true)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
}
