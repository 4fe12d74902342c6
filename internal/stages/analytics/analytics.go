// Package analytics aggregates the run log and the per-stage auxiliary
// logs into a daily metrics snapshot for the oversight email, plus a full
// weekly performance report on Sundays.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/monetization"
	"github.com/africagold/briefing/internal/stages/partnership"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/social"
)

// StageName identifies the analytics stage in the run context.
const StageName = "analytics"

// Logs collects the stores the aggregators read. All are append-only JSONL
// files under the log directory.
type Logs struct {
	Runs         *runlog.Store
	SEO          *runlog.Store
	Social       *runlog.Store
	Partnership  *runlog.Store
	Monetization *runlog.Store
}

// Snapshot is the compact trailing-week view attached to every oversight
// email.
type Snapshot struct {
	Pipeline     PipelineMetrics
	Monetization MonetizationMetrics
	Outreach     OutreachMetrics
	PriceSpark   string // 14-day gold price sparkline
	ScoreSpark   string // 14-day opportunity score sparkline
}

// Text renders the snapshot block for the plain-text oversight email.
func (s *Snapshot) Text() string {
	var b strings.Builder
	b.WriteString("7-day analytics\n")
	fmt.Fprintf(&b, "  Runs:       %d/%d delivered (%d%%), streak %dd\n",
		s.Pipeline.Delivered, s.Pipeline.Total, s.Pipeline.SuccessRate, s.Pipeline.Streak)
	fmt.Fprintf(&b, "  Gold 14d:   %s  avg $%.0f\n", s.PriceSpark, s.Pipeline.AvgPrice)
	fmt.Fprintf(&b, "  Upsell 14d: %s  avg %d/100\n", s.ScoreSpark, s.Monetization.AvgScore)
	fmt.Fprintf(&b, "  Outreach:   %d draft(s) across %d org(s)\n",
		s.Outreach.Drafts, s.Outreach.UniqueOrgs)
	return b.String()
}

// NewSnapshot aggregates the trailing week (sparklines cover two) as of now.
func NewSnapshot(logs Logs, now time.Time) *Snapshot {
	weekAgo := now.Add(-weekWindow)
	sparkAgo := now.Add(-sparkWindow)

	monetWeek := readLog(logs.Monetization, weekAgo, monetizationDate)
	monetSpark := readLog(logs.Monetization, sparkAgo, monetizationDate)

	return &Snapshot{
		Pipeline:     pipelineMetrics(readRuns(logs.Runs, weekAgo)),
		Monetization: monetizationMetrics(monetWeek),
		Outreach:     outreachMetrics(readLog(logs.Partnership, weekAgo, partnershipDate)),
		PriceSpark:   sparkline(goldPrices(readRuns(logs.Runs, sparkAgo))),
		ScoreSpark:   sparkline(scores(monetSpark)),
	}
}

func monetizationDate(rec monetization.Record) time.Time { return rec.Date }
func partnershipDate(rec partnership.Record) time.Time   { return rec.Date }
func seoDate(rec seo.Record) time.Time                   { return rec.Date }
func socialDate(rec social.Record) time.Time             { return rec.Date }

// Data is the analytics payload.
type Data struct {
	Snapshot *Snapshot
	// Weekly is set on the Sunday reporting day.
	Weekly *Report
}

// Stage reads history, never today's payloads, so it runs even when the
// content pipeline failed; the ordering constraints only ensure today's aux
// records are on disk before aggregation.
type Stage struct {
	date    time.Time
	logs    Logs
	log     *logger.Logger
	timeout time.Duration
}

// New creates the analytics stage for one run.
func New(date time.Time, logs Logs, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{date: date, logs: logs, log: log, timeout: timeout}
}

func (s *Stage) Name() string       { return StageName }
func (s *Stage) Requires() []string { return nil }
func (s *Stage) Uses() []string {
	return []string{seo.StageName, social.StageName, partnership.StageName, monetization.StageName}
}
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, _ model.Results) (any, error) {
	data := &Data{Snapshot: NewSnapshot(s.logs, s.date)}

	if s.date.Weekday() == time.Sunday {
		report, err := BuildReport(s.logs, s.date)
		if err != nil {
			s.log.Error(err, "weekly report build failed")
		} else {
			data.Weekly = report
			s.log.Info("weekly analytics report prepared")
		}
	}

	return data, nil
}
