package analytics

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.tmpl.html
var templateFS embed.FS

var weeklyTemplates = template.Must(template.New("weekly").Funcs(template.FuncMap{
	"usd":  func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"usd0": func(v float64) string { return fmt.Sprintf("$%.0f", v) },
	"pct":  func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
	"f1":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"day":  func(t time.Time) string { return t.Format("Jan 2") },
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}).ParseFS(templateFS, "templates/*.tmpl.html"))

// Report is the Sunday performance report aggregated from the full week of
// run and aux logs.
type Report struct {
	WeekStart    time.Time
	WeekEnd      time.Time
	Pipeline     PipelineMetrics
	SEO          SEOMetrics
	Social       SocialMetrics
	Outreach     OutreachMetrics
	Monetization MonetizationMetrics
	PriceSpark   string
	ScoreSpark   string

	// Rendered forms: HTML for email delivery, Text for terminals.
	HTML string
	Text string
}

// BuildReport aggregates the trailing week ending at now and renders both
// report forms.
func BuildReport(logs Logs, now time.Time) (*Report, error) {
	weekAgo := now.Add(-weekWindow)

	report := &Report{
		WeekStart:    weekAgo,
		WeekEnd:      now,
		Pipeline:     pipelineMetrics(readRuns(logs.Runs, weekAgo)),
		SEO:          seoMetrics(readLog(logs.SEO, weekAgo, seoDate)),
		Social:       socialMetrics(readLog(logs.Social, weekAgo, socialDate)),
		Outreach:     outreachMetrics(readLog(logs.Partnership, weekAgo, partnershipDate)),
		Monetization: monetizationMetrics(readLog(logs.Monetization, weekAgo, monetizationDate)),
	}
	report.PriceSpark = sparkline(goldPrices(readRuns(logs.Runs, weekAgo)))
	report.ScoreSpark = sparkline(scores(readLog(logs.Monetization, weekAgo, monetizationDate)))

	var html strings.Builder
	if err := weeklyTemplates.ExecuteTemplate(&html, "weekly", report); err != nil {
		return nil, fmt.Errorf("rendering weekly report: %w", err)
	}
	report.HTML = html.String()
	report.Text = report.summary()
	return report, nil
}

// summary is the terminal-friendly digest of the full report.
func (r *Report) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly analytics, %s to %s\n\n",
		r.WeekStart.Format("Jan 2"), r.WeekEnd.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Pipeline:     %d/%d delivered (%d%%), %d failed, streak %d\n",
		r.Pipeline.Delivered, r.Pipeline.Total, r.Pipeline.SuccessRate, r.Pipeline.Failed, r.Pipeline.Streak)
	if r.Pipeline.AvgPrice > 0 {
		fmt.Fprintf(&b, "Gold:         avg $%.2f (range $%.2f to $%.2f), avg move %+.2f%%\n",
			r.Pipeline.AvgPrice, r.Pipeline.PriceLow, r.Pipeline.PriceHigh, r.Pipeline.AvgDayPct)
	}
	fmt.Fprintf(&b, "SEO:          %d post(s) enriched, %d unique slug(s), avg %.1f tags\n",
		r.SEO.Total, r.SEO.UniqueSlugs, r.SEO.AvgTags)
	fmt.Fprintf(&b, "Social:       %d post(s) drafted, avg tweet %d chars\n",
		r.Social.Total, r.Social.AvgTweetChars)
	fmt.Fprintf(&b, "Outreach:     %d draft(s) across %d org(s)\n",
		r.Outreach.Drafts, r.Outreach.UniqueOrgs)
	fmt.Fprintf(&b, "Monetization: avg %d/100, peak %d\n",
		r.Monetization.AvgScore, r.Monetization.PeakScore)
	return b.String()
}
