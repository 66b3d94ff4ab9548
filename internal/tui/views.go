package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thruflo/keysweep/internal/loop"
)

// ViewState holds the data needed to render views.
type ViewState struct {
	Status loop.Status
	Target string // Page the run is attached to, if known
	Notice string // Most recent notification
}

// SummaryView renders the control panel.
type SummaryView struct{}

// Render renders the summary view to a slice of strings.
// Width specifies the terminal width for the view.
func (v *SummaryView) Render(state ViewState, width int) []string {
	if width < 30 {
		width = 30
	}
	innerWidth := width - 4 // border and padding

	st := state.Status
	var content []string

	title := "keysweep"
	if state.Target != "" {
		title += ": " + Truncate(state.Target, innerWidth-len(title)-2)
	}
	content = append(content, titleStyle.Render(title))

	content = append(content, fmt.Sprintf("mode: %s | auto-submit: %s",
		FormatMode(st.Mode), FormatAutoSubmit(st.AutoSubmit)))

	content = append(content, Truncate(st.Line(), innerWidth))

	if bar := ProgressBar(st.Cursor, st.Total, min(innerWidth-16, 40)); bar != "" {
		content = append(content, fmt.Sprintf("%s %d/%d", bar, st.Cursor, st.Total))
	}

	if st.Final {
		content = append(content, "run ended: "+st.Reason.String())
	}
	if state.Notice != "" {
		content = append(content, noticeStyle.Render(Truncate(state.Notice, innerWidth)))
	}

	content = append(content, "")
	content = append(content, dimStyle.Render("[e]nable auto-submit [p]ause/resume [s]top [r]eset [t]ail [q]uit"))

	box := panelStyle.Width(width - 2).Render(strings.Join(content, "\n"))
	return strings.Split(box, "\n")
}

// TailView keeps recent attempt lines for the tail view.
type TailView struct {
	lines    []string
	maxLines int
}

// NewTailView creates a TailView with the specified maximum line buffer.
func NewTailView(maxLines int) *TailView {
	if maxLines < 1 {
		maxLines = 1000
	}
	return &TailView{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
	}
}

// Append adds a line to the tail view buffer.
func (v *TailView) Append(line string) {
	v.lines = append(v.lines, line)
	if len(v.lines) > v.maxLines {
		v.lines = v.lines[len(v.lines)-v.maxLines:]
	}
}

// Clear removes all lines from the buffer.
func (v *TailView) Clear() {
	v.lines = v.lines[:0]
}

// Lines returns all lines in the buffer.
func (v *TailView) Lines() []string {
	return v.lines
}

// Render renders the last height lines between a header and a footer.
func (v *TailView) Render(width, height int) []string {
	if width < 30 {
		width = 30
	}
	if height < 3 {
		height = 3
	}

	result := make([]string, 0, height+2)
	result = append(result, rule("attempts (press 't' to return) ", width))

	start := max(0, len(v.lines)-height)
	for _, line := range v.lines[start:] {
		result = append(result, Truncate(line, width))
	}
	for len(result) < height+1 {
		result = append(result, "")
	}

	result = append(result, rule(fmt.Sprintf("%d lines ", len(v.lines)), width))
	return result
}

func rule(label string, width int) string {
	head := "─── " + label
	return dimStyle.Render(head + strings.Repeat("─", max(0, width-lipgloss.Width(head))))
}
