package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/view"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Header tabs
	tabStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorHighlight).
			Bold(true).
			Padding(0, 1)

	brandStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true).
			Padding(0, 1)

	// Panes
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	paneFocusedStyle = paneStyle.
				BorderForeground(colorPurple)

	paneHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	textStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Category selector
	categoryStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	categoryActiveStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true).
				Padding(0, 1)

	// Issue cards
	issueTitleStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	issueIDStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	issueFixStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	positiveStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Italic(true)

	// Rewrite panel
	changeStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorBgLight).
			Bold(true)

	// Help
	helpHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	// Toasts
	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// severityStyles color issue badges.
var severityStyles = map[string]lipgloss.Style{
	"critical": lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	"high":     lipgloss.NewStyle().Foreground(colorOrange).Bold(true),
	"medium":   lipgloss.NewStyle().Foreground(colorYellow),
	"low":      lipgloss.NewStyle().Foreground(colorBlue),
}

func severityStyle(sev string) lipgloss.Style {
	if s, ok := severityStyles[sev]; ok {
		return s
	}
	return severityStyles["medium"]
}

func bandStyle(b view.Band) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color()))
}

func toastColor(k notify.Kind) lipgloss.Color {
	switch k {
	case notify.KindSuccess:
		return colorGreen
	case notify.KindError:
		return colorRed
	default:
		return colorBlue
	}
}
