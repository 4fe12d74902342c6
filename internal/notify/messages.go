package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/africagold/briefing/internal/model"
)

// RunMessage composes the post-run status email from the entry reporting
// just appended. snapshot, when non-empty, is the analytics metrics block
// appended below the stage table.
func RunMessage(entry *model.RunLogEntry, snapshot string) Message {
	day := entry.Timestamp.Format("Mon Jan 2, 2006")

	var subject string
	switch {
	case entry.Status == model.RunStatusFailed:
		subject = fmt.Sprintf("🚨 Briefing FAILED — %s (%s)", day, entry.PostType.Label())
	case entry.Status == model.RunStatusDryRun:
		subject = fmt.Sprintf("Briefing dry run complete — %s", day)
	case entry.Publish != nil && entry.Publish.State == model.PublishPublished:
		subject = fmt.Sprintf("✅ Briefing published — %s (%s)", day, entry.PostType.Label())
	case entry.Publish != nil && entry.Publish.State == model.PublishDrafted:
		subject = fmt.Sprintf("📝 Draft ready for review — %s (%s)", day, entry.PostType.Label())
	default:
		subject = fmt.Sprintf("Briefing run complete — %s (%s)", day, entry.PostType.Label())
	}
	if entry.Status == model.RunStatusDegraded {
		subject = "⚠️ " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished with status %s in %.1fs (mode=%s).\n\n",
		entry.RunID, entry.Status, entry.ElapsedS, entry.Mode)

	if entry.GoldPrice > 0 {
		fmt.Fprintf(&b, "Gold: $%.2f (%+.2f%% on the day)\n\n", entry.GoldPrice, entry.DayChangePct)
	}

	if entry.Publish != nil {
		fmt.Fprintf(&b, "Distribution: %s", entry.Publish.State)
		if entry.Publish.Transport != model.TransportNone {
			fmt.Fprintf(&b, " via %s", entry.Publish.Transport)
		}
		if entry.Publish.PostURL != "" {
			fmt.Fprintf(&b, "\n%s", entry.Publish.PostURL)
		}
		if entry.Publish.PreviewFree != "" {
			fmt.Fprintf(&b, "\nPreview: %s", entry.Publish.PreviewFree)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("Stages:\n")
	names := make([]string, 0, len(entry.Stages))
	for name := range entry.Stages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stage := entry.Stages[name]
		fmt.Fprintf(&b, "  %-24s %s", name, stage.Status)
		if stage.Category != "" {
			fmt.Fprintf(&b, " (%s)", stage.Category)
		}
		if stage.Message != "" {
			fmt.Fprintf(&b, ": %s", stage.Message)
		}
		b.WriteString("\n")
	}

	if len(entry.Warnings) > 0 {
		b.WriteString("\n")
		for _, warning := range entry.Warnings {
			b.WriteString(warning + "\n")
		}
	}

	if snapshot != "" {
		b.WriteString("\n" + snapshot)
	}

	return Message{Subject: subject, Text: b.String()}
}

// WeeklyReport wraps the Sunday analytics report for delivery.
func WeeklyReport(weekEnd time.Time, text, html string) Message {
	return Message{
		Subject: "📊 Weekly analytics report — " + weekEnd.Format("Jan 2, 2006"),
		Text:    text,
		HTML:    html,
	}
}

// FallbackEdition wraps the full rendered edition into an email, used when
// every transport failed so the day's content still reaches the operator.
func FallbackEdition(edition *model.RenderedEdition) Message {
	return Message{
		Subject: "📧 Delivery fallback — " + edition.Title,
		Text: fmt.Sprintf("No transport could deliver today's edition. Full premium content below.\n\n%s",
			edition.Premium.Plaintext),
		HTML: edition.Premium.HTML,
	}
}
