package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render("stackwright"))
	b.WriteString("\n\n")

	for _, row := range a.phases {
		b.WriteString(a.renderPhase(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderLogs())
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderPhase renders one phase board row.
func (a *App) renderPhase(row PhaseRow) string {
	glyph := "○"
	switch row.Status {
	case "in_progress":
		glyph = a.spinner.View()
	case "completed":
		glyph = a.successStyle.Render("✓")
	case "skipped":
		glyph = a.dimStyle.Render("~")
	case "error":
		glyph = a.errorStyle.Render("✗")
	}

	label := fmt.Sprintf("%d. %s", row.Index+1, row.Name)
	if row.Optional {
		label += a.dimStyle.Render(" (optional)")
	}
	if row.Kind != "" && row.Kind != "generation" {
		label += a.dimStyle.Render(" [" + row.Kind + "]")
	}

	line := fmt.Sprintf("  %s %s", glyph, label)

	if row.Status == "error" && row.Error != "" {
		line += "\n      " + a.errorStyle.Render(row.Error)
	} else if row.Summary != "" {
		line += "\n      " + a.dimStyle.Render(truncate(row.Summary, 70))
	}

	return line
}

// renderLogs renders the tail of the log panel.
func (a *App) renderLogs() string {
	visible := 8
	start := len(a.logs) - visible
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, entry := range a.logs[start:] {
		line := entry.Timestamp.Format("15:04:05") + " " + entry.Message
		b.WriteString("  " + a.dimStyle.Render(truncate(line, a.logWidth())) + "\n")
	}
	return b.String()
}

// renderFooter renders the proposal prompt or run status line.
func (a *App) renderFooter() string {
	if a.done {
		if a.doneSuccess {
			return a.successStyle.Render("✓ "+a.doneMessage) + a.hintStyle.Render("  │ q quit")
		}
		return a.errorStyle.Render("✗ "+a.doneMessage) + a.hintStyle.Render("  │ q quit")
	}

	if a.proposal != nil {
		prompt := fmt.Sprintf("Run phase %d (%s)?", a.proposal.Index+1, a.proposal.Name)
		hints := "y confirm"
		if a.proposal.Optional {
			hints += " │ s skip"
		}
		hints += " │ q quit"
		return a.promptStyle.Render(prompt) + "  " + a.hintStyle.Render(hints)
	}

	if a.busy || a.running >= 0 {
		return a.spinner.View() + " " + a.hintStyle.Render("working... │ q quit")
	}

	return a.hintStyle.Render("q quit")
}

func (a *App) logWidth() int {
	if a.width > 10 {
		return a.width - 4
	}
	return 76
}

// truncate cuts a string to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n || n < 4 {
		return s
	}
	return string(runes[:n-3]) + "..."
}
