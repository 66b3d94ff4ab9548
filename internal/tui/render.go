package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
)

var (
	colorGreen  lipgloss.Color = "#2ecc71"
	colorOrange lipgloss.Color = "#f39c12"
	colorRed    lipgloss.Color = "#e74c3c"
	colorDim    lipgloss.Color = "241"

	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
)

// ModeColor returns the panel color for a run mode.
func ModeColor(m control.Mode) lipgloss.Color {
	switch m {
	case control.ModeRunning:
		return colorGreen
	case control.ModePaused:
		return colorOrange
	default:
		return colorRed
	}
}

// FormatMode renders a mode label in its color.
func FormatMode(m control.Mode) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ModeColor(m)).Render(m.String())
}

// FormatAutoSubmit renders the auto-submit latch.
func FormatAutoSubmit(enabled bool) string {
	if enabled {
		return lipgloss.NewStyle().Bold(true).Foreground(colorGreen).Render("ENABLED")
	}
	return dimStyle.Render("off")
}

// FormatOutcome renders a submission outcome.
func FormatOutcome(o field.Outcome) string {
	switch o {
	case field.OutcomeSubmitted:
		return lipgloss.NewStyle().Foreground(colorGreen).Render(o.String())
	case field.OutcomeNotSubmitted:
		return lipgloss.NewStyle().Foreground(colorRed).Render(o.String())
	default:
		return dimStyle.Render(o.String())
	}
}

// PadOrTruncate pads or truncates a string to exactly width characters.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n <= width {
		return s + strings.Repeat(" ", width-n)
	}
	return Truncate(s, width)
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// ProgressBar renders a bar like "[████░░░░] 50%" in width columns.
func ProgressBar(current, total, width int) string {
	if total <= 0 || width < 10 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}
	if pct < 0 {
		pct = 0
	}

	barWidth := width - 7 // "[" + "]" + " 100%"
	filled := int(pct * float64(barWidth))

	return "[" +
		strings.Repeat("█", filled) +
		strings.Repeat("░", barWidth-filled) +
		"] " + fmt.Sprintf("%3d%%", int(pct*100))
}
