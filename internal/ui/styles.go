package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Color palette - centralized color definitions
var (
	ColorBorder    = lipgloss.Color("196") // red
	ColorHighlight = lipgloss.Color("88")  // dark red background
	ColorText      = lipgloss.Color("15")  // bright white
	ColorAccent    = lipgloss.Color("226") // bright yellow
	ColorAccentDim = lipgloss.Color("220") // yellow (progress)
	ColorTextDim   = lipgloss.Color("241") // gray
	ColorSuccess   = lipgloss.Color("82")  // green
	ColorInfo      = lipgloss.Color("86")  // cyan
)

// Common styles - reusable style definitions
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			MarginBottom(1)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorBorder).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// RenderNormal renders text in the default white style
func RenderNormal(text string) string {
	return NormalStyle.Render(text)
}

// NewAppSpinner creates the white dot spinner used for blocking operations
func NewAppSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorText)
	return s
}

// NewAppTheme creates a huh theme matching the app's style guide
// White text, red highlights/selection
func NewAppTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)
	t.Blurred.Title = t.Focused.Title

	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Description = t.Focused.Description

	t.Focused.Base = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Base = t.Focused.Base

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBorder).
		Bold(true).
		Padding(0, 1)

	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 1)

	// Text input styling
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(ColorBorder)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(ColorTextDim)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(ColorBorder)

	return t
}
