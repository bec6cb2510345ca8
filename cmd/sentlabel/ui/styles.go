// Package ui renders the labeling session on a terminal.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status colors shared by both themes.
var (
	colorError   = lipgloss.Color("#d32f2f")
	colorSuccess = lipgloss.Color("#388e3c")
	colorWarning = lipgloss.Color("#f9a825")
	colorInfo    = lipgloss.Color("#1976d2")
)

// Theme is the foreground palette for one terminal background.
type Theme struct {
	Text    lipgloss.Color // sentence text
	Caption lipgloss.Color // "Base :", "(a):"
	Heading lipgloss.Color
	Dim     lipgloss.Color // counters, rules
	IsDark  bool
}

// LightTheme suits dark text on a light background.
func LightTheme() Theme {
	return Theme{
		Text:    lipgloss.Color("#1f2937"),
		Caption: lipgloss.Color("#00796b"),
		Heading: lipgloss.Color("#283593"),
		Dim:     lipgloss.Color("#78909c"),
	}
}

// DarkTheme suits light text on a dark background.
func DarkTheme() Theme {
	return Theme{
		Text:    lipgloss.Color("#eceff1"),
		Caption: lipgloss.Color("#80cbc4"),
		Heading: lipgloss.Color("#9fa8da"),
		Dim:     lipgloss.Color("#90a4ae"),
		IsDark:  true,
	}
}

// ThemeFor resolves a ui.theme setting; "auto" defers to DetectTheme.
func ThemeFor(setting string) Theme {
	switch setting {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	}
	return DetectTheme()
}

// DetectTheme picks the dark theme when COLORFGBG reports a dark
// background or SENTLABEL_DARK_MODE=1, and the light theme otherwise.
func DetectTheme() Theme {
	if darkBackground(os.Getenv("COLORFGBG")) || os.Getenv("SENTLABEL_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// darkBackground parses COLORFGBG ("fg;bg" or "fg;default;bg"). ANSI
// colors 0-6 and 8 are dark.
func darkBackground(colorfgbg string) bool {
	if colorfgbg == "" {
		return false
	}
	parts := strings.Split(colorfgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return (bg >= 0 && bg <= 6) || bg == 8
}

// Styles are the rendered styles of one console.
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Label   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Current lipgloss.Style
	Divider lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles binds theme to r so color output follows r's profile.
func NewStyles(r *lipgloss.Renderer, theme Theme) Styles {
	s := Styles{Theme: theme}
	s.Title = r.NewStyle().Foreground(theme.Heading).Bold(true)
	s.Label = r.NewStyle().Foreground(theme.Caption).Bold(true)
	s.Body = r.NewStyle().Foreground(theme.Text)
	s.Muted = r.NewStyle().Foreground(theme.Dim)
	s.Divider = s.Muted
	s.Current = r.NewStyle().Foreground(colorInfo).Italic(true)
	s.Success = r.NewStyle().Foreground(colorSuccess).Bold(true)
	s.Error = r.NewStyle().Foreground(colorError).Bold(true)
	s.Warning = r.NewStyle().Foreground(colorWarning)
	s.Info = r.NewStyle().Foreground(colorInfo)
	return s
}
