package logbrowser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/africagold/briefing/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		model.RunStatusSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		model.RunStatusDegraded: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		model.RunStatusDryRun:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		model.RunStatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

// Table renders run-log entries as a static table for non-interactive
// output, newest first.
func Table(entries []model.RunLogEntry) string {
	if len(entries) == 0 {
		return "run log is empty\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-19s  %-8s  %-18s  %-8s  %-10s  %-9s  %s",
		"WHEN", "STATUS", "POST TYPE", "MODE", "GOLD", "ELAPSED", "PUBLISH")))
	b.WriteString("\n")

	for _, entry := range entries {
		status := string(entry.Status)
		if style, ok := statusStyles[entry.Status]; ok {
			// Pad before styling so ANSI codes don't break the columns.
			status = style.Render(fmt.Sprintf("%-8s", entry.Status))
		} else {
			status = fmt.Sprintf("%-8s", status)
		}

		gold := "-"
		if entry.GoldPrice > 0 {
			gold = fmt.Sprintf("$%.2f", entry.GoldPrice)
		}
		publish := "-"
		if entry.Publish != nil {
			publish = string(entry.Publish.State)
			if entry.Publish.Transport != model.TransportNone {
				publish += " (" + string(entry.Publish.Transport) + ")"
			}
		}

		fmt.Fprintf(&b, "%-19s  %s  %-18s  %-8s  %-10s  %-9s  %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			status,
			entry.PostType,
			entry.Mode,
			gold,
			fmt.Sprintf("%.1fs", entry.ElapsedS),
			publish,
		)
	}
	return b.String()
}
