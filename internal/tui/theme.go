package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// faultline amber theme
var (
	// Primary colors
	Amber      = lipgloss.Color("#FFB454")
	DeepAmber  = lipgloss.Color("#FF8C00")
	LightAmber = lipgloss.Color("#FFE0B2")
	Rust       = lipgloss.Color("#C1440E")

	// Neutral colors
	White     = lipgloss.Color("#FFFFFF")
	LightGray = lipgloss.Color("#B0B0B0")
	DarkGray  = lipgloss.Color("#404040")

	// Status colors
	Success = lipgloss.Color("#00FF88")
	Warning = lipgloss.Color("#FFD700")
	Error   = lipgloss.Color("#FF6B6B")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(DeepAmber).
			Bold(true).
			Padding(0, 2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightAmber).
			Bold(true)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(LightAmber)

	ValueStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	DimStyle = lipgloss.NewStyle().
			Foreground(LightGray)
)

const (
	CheckMark = "✓"
	CrossMark = "✗"
)

// patternBadges maps pattern names to their colored console badge.
var patternBadges = map[string]string{
	"normal":          SuccessStyle.Render("[normal ]"),
	"spike":           WarningStyle.Render("[spike  ]"),
	"outage":          ErrorStyle.Render("[outage ]"),
	"slow_response":   WarningStyle.Render("[slow   ]"),
	"high_error_rate": ErrorStyle.Render("[errors ]"),
}

// PatternBadge returns the colored badge for a pattern name.
func PatternBadge(name string) string {
	if badge, ok := patternBadges[name]; ok {
		return badge
	}
	return DimStyle.Render("[unknown]")
}

// ProgressBar renders a ratio in [0,1] as a fixed-width bar.
func ProgressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(Amber).Render(bar)
}

// Divider renders a horizontal rule.
func Divider(width int) string {
	return DimStyle.Render(strings.Repeat("─", width))
}
