package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sprite-ai/coderefine/internal/highlight"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/view"
	"github.com/sprite-ai/coderefine/internal/workflow"
)

// pulseColor interpolates between a dim and bright version of a color based on phase.
func pulseColor(dimRGB, brightRGB [3]int, phase float64) lipgloss.Color {
	t := (math.Sin(phase) + 1) / 2 // 0.0 to 1.0
	r := dimRGB[0] + int(t*float64(brightRGB[0]-dimRGB[0]))
	g := dimRGB[1] + int(t*float64(brightRGB[1]-dimRGB[1]))
	b := dimRGB[2] + int(t*float64(brightRGB[2]-dimRGB[2]))
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// Status line color pair: [dim, bright].
var (
	statusDim    = [3]int{0x5e, 0x4a, 0x8a} // muted purple
	statusBright = [3]int{0xbd, 0x93, 0xf9} // bright purple
)

func (m Model) renderEditor(width, height int) string {
	style := paneStyle
	if m.focus == focusEditor {
		style = paneFocusedStyle
	}
	innerHeight := height - 2

	header := paneHeaderStyle.Render("Source") + dimStyle.Render(fmt.Sprintf("  %s · %s", m.language, m.editor.CharCount()))

	var body string
	if m.focus == focusEditor {
		body = m.editor.View()
	} else {
		// Read-only preview gets syntax colors.
		body = clipLines(highlight.Code(m.language, m.editor.Text(), true), innerHeight-1, width-4)
	}

	return style.Width(width - 2).Height(innerHeight).Render(header + "\n" + body)
}

func (m Model) renderResults(width, height int) string {
	style := paneStyle
	if m.focus == focusResults {
		style = paneFocusedStyle
	}
	innerHeight := height - 2
	lines := m.resultsLines(width - 4)

	return style.Width(width - 2).Height(innerHeight).Render(window(lines, m.scroll, innerHeight))
}

func (m Model) resultsLines(innerWidth int) []string {
	var content string
	switch {
	case m.state.IsLoading(workflow.KindAnalyze):
		content = m.renderLoading(innerWidth)
	case m.state.HasResult():
		content = m.renderAnalysis(innerWidth)
		if m.state.IsLoading(workflow.KindRewrite) {
			content += "\n\n" + m.spinner.View() + " " + dimStyle.Render("Generating optimized code...")
		}
		if m.rewriteOpen && m.state.Rewritten() {
			content += "\n\n" + m.renderRewrite(innerWidth)
		}
	default:
		content = renderIdle(innerWidth)
	}
	return strings.Split(content, "\n")
}

// maxScroll is the last scroll offset that still fills the visible pane.
func maxScroll(lines []string, height int) int {
	return max(len(lines)-height, 0)
}

// window joins the height lines starting at scroll, clamped to lines.
func window(lines []string, scroll, height int) string {
	height = max(height, 0)
	start := min(scroll, maxScroll(lines, height))
	end := min(start+height, len(lines))
	return strings.Join(lines[start:end], "\n")
}

func renderIdle(width int) string {
	lines := []string{
		paneHeaderStyle.Render("Ready to review"),
		"",
		textStyle.Width(width).Render("Paste code into the editor and press ctrl+r to analyze it for bugs, security flaws, performance problems and style."),
		"",
		dimStyle.Render("esc switches focus · s loads a sample · [ ] change language"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLoading(width int) string {
	status := lipgloss.NewStyle().Foreground(pulseColor(statusDim, statusBright, m.phase)).Render(m.state.Status)
	return strings.Join([]string{
		paneHeaderStyle.Render("Analyzing"),
		"",
		m.spinner.View() + " " + status,
		"",
		dimStyle.Width(width).Render("This can take a while for large files."),
	}, "\n")
}

func (m Model) renderAnalysis(width int) string {
	v := view.Project(m.state.Result, m.state.Category)
	var b strings.Builder

	// Score
	scoreStyle := bandStyle(v.Band).Bold(true)
	b.WriteString(scoreStyle.Render(fmt.Sprintf("%d", v.Score)))
	b.WriteString(dimStyle.Render("/100  Grade "))
	b.WriteString(scoreStyle.Render(v.Grade))
	b.WriteByte('\n')
	b.WriteString(renderRing(v, width))
	b.WriteByte('\n')
	if v.Summary != "" {
		b.WriteString(textStyle.Width(width).Render(v.Summary))
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render(strings.Join(v.Stats, " · ")))
	b.WriteString("\n\n")

	// Metrics
	for _, mb := range v.Metrics {
		b.WriteString(renderMetric(mb, width))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	// Category selector
	var tabs []string
	for i, c := range v.Counts {
		label := fmt.Sprintf("%d %s %d", i+1, c.Label, c.Count)
		if c.Category == v.Category {
			tabs = append(tabs, categoryActiveStyle.Render(label))
		} else {
			tabs = append(tabs, categoryStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Render(strings.Join(tabs, "")))
	b.WriteString("\n\n")

	b.WriteString(renderItems(v, width))
	return b.String()
}

// renderRing draws the score ring as a horizontal gauge; the unfilled
// share is the ring's stroke offset.
func renderRing(v view.ResultView, width int) string {
	w := width
	if w > 40 {
		w = 40
	}
	if w < 10 {
		w = 10
	}
	filled := int(math.Round((view.RingCircumference - v.RingOffset) / view.RingCircumference * float64(w)))
	return bandStyle(v.Band).Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", w-filled))
}

func renderMetric(mb view.MetricBar, width int) string {
	barWidth := width - 22
	if barWidth > 30 {
		barWidth = 30
	}
	if barWidth < 5 {
		barWidth = 5
	}
	filled := mb.Value * barWidth / 100
	style := bandStyle(mb.Band)
	return fmt.Sprintf("%-16s %s %s",
		mb.Name,
		style.Render(fmt.Sprintf("%3d", mb.Value)),
		style.Render(strings.Repeat("▇", filled))+dimStyle.Render(strings.Repeat("·", barWidth-filled)),
	)
}

func renderItems(v view.ResultView, width int) string {
	if v.Empty != "" {
		return emptyStyle.Render("✓ " + v.Empty)
	}

	var b strings.Builder
	if v.Category == model.CategoryPositives {
		for i, p := range v.Positives {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(positiveStyle.Render("✓ Good  "))
			b.WriteString(textStyle.Render(p))
		}
		return b.String()
	}

	for i, c := range v.Cards {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderCard(c, width))
	}
	return b.String()
}

func renderCard(c view.IssueCard, width int) string {
	var b strings.Builder

	b.WriteString(severityStyle(c.Severity).Render(strings.ToUpper(c.Severity)))
	if c.ID != "" {
		b.WriteString(" " + issueIDStyle.Render(c.ID))
	}
	b.WriteString(" " + issueTitleStyle.Render(c.Title))
	if c.Line > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  Line %d", c.Line)))
	}

	if c.Description != "" {
		b.WriteByte('\n')
		b.WriteString(textStyle.Width(width).Render(c.Description))
	}
	if c.Fix != "" {
		b.WriteByte('\n')
		b.WriteString(issueFixStyle.Width(width).Render("→ " + c.Fix))
	}
	if c.CWE != "" {
		b.WriteByte('\n')
		b.WriteString(dimStyle.Render(c.CWE))
	}
	return b.String()
}

func (m Model) renderRewrite(width int) string {
	v := view.ProjectRewrite(m.state.Rewrite)
	var b strings.Builder

	b.WriteString(paneHeaderStyle.Render("✨ Optimized Code"))
	b.WriteString(dimStyle.Render("  u use · x close"))
	b.WriteByte('\n')
	if v.Explanation != "" {
		b.WriteString(dimStyle.Width(width).Render(v.Explanation))
		b.WriteByte('\n')
	}
	for _, c := range v.Changes {
		b.WriteString(changeStyle.Width(width).Render(c.Icon + " " + c.Description))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(clipLines(highlight.Code(m.language, v.Code, true), -1, width))
	return b.String()
}

func (m Model) renderHistory(width, height int) string {
	innerHeight := height - 2
	lines := m.historyLines(width - 4)

	return paneFocusedStyle.Width(width - 2).Height(innerHeight).Render(window(lines, m.scroll, innerHeight))
}

func (m Model) historyLines(innerWidth int) []string {
	var lines []string
	lines = append(lines, paneHeaderStyle.Render("History")+dimStyle.Render("  c clear · r reload"), "")

	switch {
	case m.historyLoading && len(m.history) == 0:
		lines = append(lines, dimStyle.Render("Loading history..."))
	case len(m.history) == 0:
		lines = append(lines, dimStyle.Render("📋 "+view.EmptyHistoryMessage))
	default:
		for _, row := range view.ProjectHistory(m.history, m.loc) {
			score := bandStyle(row.Band).Bold(true).Render(fmt.Sprintf("%3d", row.Score))
			meta := dimStyle.Render(fmt.Sprintf("%s · %s", row.Time, row.Issues))
			lines = append(lines,
				score+"  "+issueTitleStyle.Render(row.Heading)+"  "+meta,
				"     "+textStyle.Render(truncate(row.Summary, innerWidth-5)),
				"",
			)
		}
	}
	return lines
}

func (m Model) renderToasts() string {
	toasts := m.notes.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	var lines []string
	for _, t := range toasts {
		color := toastColor(t.Kind)
		style := lipgloss.NewStyle().Foreground(color)
		if t.Leaving {
			style = dimStyle
		}
		lines = append(lines, style.Render(" "+t.Kind.Icon()+" "+view.SanitizeLine(t.Message)))
	}
	return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Right).Render(strings.Join(lines, "\n"))
}

// clipLines keeps at most n lines (all when n < 0), each cut to width
// visible cells.
func clipLines(s string, n, width int) string {
	lines := strings.Split(s, "\n")
	if n >= 0 && len(lines) > n {
		lines = lines[:n]
	}
	for i, l := range lines {
		if width > 0 && lipgloss.Width(l) > width {
			lines[i] = ansi.Truncate(l, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
