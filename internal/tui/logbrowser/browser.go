// Package logbrowser renders the run log: an interactive browser when
// stdout is a terminal, a plain table otherwise.
package logbrowser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/africagold/briefing/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailStyle = lipgloss.NewStyle().Padding(1, 2)
)

// item adapts one run-log entry to the list component.
type item struct {
	entry model.RunLogEntry
}

func (i item) Title() string {
	return fmt.Sprintf("%s  %s  %s",
		i.entry.Timestamp.Format("2006-01-02 15:04"), i.entry.Status, i.entry.PostType)
}

func (i item) Description() string {
	desc := fmt.Sprintf("mode=%s elapsed=%.1fs", i.entry.Mode, i.entry.ElapsedS)
	if i.entry.GoldPrice > 0 {
		desc += fmt.Sprintf(" gold=$%.2f", i.entry.GoldPrice)
	}
	return desc
}

func (i item) FilterValue() string {
	return string(i.entry.PostType) + " " + i.entry.Status
}

// Model is the bubbletea model for the interactive run-log browser.
type Model struct {
	list     list.Model
	selected *model.RunLogEntry
}

// NewModel builds the browser over the given entries, newest first.
func NewModel(entries []model.RunLogEntry) Model {
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = item{entry: entry}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Run Log"
	l.SetShowStatusBar(false)
	return Model{list: l}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.selected != nil {
				m.selected = nil
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			m.selected = nil
			return m, nil
		case "enter":
			if selected, ok := m.list.SelectedItem().(item); ok {
				entry := selected.entry
				m.selected = &entry
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.selected != nil {
		return detailStyle.Render(renderDetail(*m.selected))
	}
	return m.list.View()
}

func renderDetail(entry model.RunLogEntry) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s — %s", entry.RunID, entry.Status)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s (%s)\n", labelStyle.Render("edition:"), entry.PostType.Label(), entry.Mode)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("when:"), entry.Timestamp.Format("Mon Jan 2 2006 15:04:05 MST"))
	if entry.GoldPrice > 0 {
		fmt.Fprintf(&b, "%s $%.2f (%+.2f%%)\n", labelStyle.Render("gold:"), entry.GoldPrice, entry.DayChangePct)
	}
	if entry.Publish != nil {
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("publish:"), entry.Publish.State)
		if entry.Publish.PostURL != "" {
			fmt.Fprintf(&b, " %s", entry.Publish.PostURL)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + labelStyle.Render("stages:") + "\n")
	names := make([]string, 0, len(entry.Stages))
	for name := range entry.Stages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stage := entry.Stages[name]
		fmt.Fprintf(&b, "  %-24s %-8s %6dms", name, stage.Status, stage.DurationMS)
		if stage.Category != "" {
			fmt.Fprintf(&b, "  %s", stage.Category)
		}
		b.WriteString("\n")
	}

	for _, warning := range entry.Warnings {
		b.WriteString("\n" + warning)
	}

	b.WriteString("\n\n" + labelStyle.Render("esc/q back · ctrl+c quit"))
	return b.String()
}

// Run launches the interactive browser.
func Run(entries []model.RunLogEntry) error {
	program := tea.NewProgram(NewModel(entries), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
