package analytics

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/monetization"
	"github.com/africagold/briefing/internal/stages/partnership"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/social"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func testLogs(t *testing.T) Logs {
	t.Helper()
	dir := t.TempDir()
	return Logs{
		Runs:         runlog.NewStore(filepath.Join(dir, "run_log.jsonl")),
		SEO:          runlog.NewStore(filepath.Join(dir, "seo.jsonl")),
		Social:       runlog.NewStore(filepath.Join(dir, "social.jsonl")),
		Partnership:  runlog.NewStore(filepath.Join(dir, "partnership.jsonl")),
		Monetization: runlog.NewStore(filepath.Join(dir, "monetization.jsonl")),
	}
}

func appendRun(t *testing.T, logs Logs, when time.Time, status string, price float64) {
	t.Helper()
	require.NoError(t, logs.Runs.Append(model.RunLogEntry{
		RunID:        "run-" + when.Format("20060102"),
		Timestamp:    when,
		Status:       status,
		PostType:     model.PostTypeForDate(when),
		Mode:         model.ModeDraft,
		GoldPrice:    price,
		DayChangePct: 0.5,
		ElapsedS:     12,
	}))
}

func appendScore(t *testing.T, logs Logs, when time.Time, score int, strategy string) {
	t.Helper()
	require.NoError(t, logs.Monetization.Append(monetization.Record{
		RunID:    "run-" + when.Format("20060102"),
		Date:     when,
		Score:    score,
		Strategy: strategy,
	}))
}

func TestSnapshotAggregatesTrailingWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	logs := testLogs(t)

	appendRun(t, logs, now.AddDate(0, 0, -3), model.RunStatusFailed, 0)
	appendRun(t, logs, now.AddDate(0, 0, -2), model.RunStatusSuccess, 2370)
	appendRun(t, logs, now.AddDate(0, 0, -1), model.RunStatusDegraded, 2387.40)

	appendScore(t, logs, now.AddDate(0, 0, -2), 40, monetization.StrategyNurture)
	appendScore(t, logs, now.AddDate(0, 0, -1), 70, monetization.StrategyAggressive)

	require.NoError(t, logs.Partnership.Append(partnership.Record{
		RunID: "run-a", Date: now.AddDate(0, 0, -1), Due: true,
		Drafts: []partnership.Draft{
			{To: "info@ghanachamberofmines.org"},
			{To: "media@mineralscouncil.org.za"},
		},
	}))

	snap := NewSnapshot(logs, now)

	assert.Equal(t, 3, snap.Pipeline.Total)
	assert.Equal(t, 2, snap.Pipeline.Delivered)
	assert.Equal(t, 1, snap.Pipeline.Failed)
	assert.Equal(t, 66, snap.Pipeline.SuccessRate)
	// Newest two runs did not fail.
	assert.Equal(t, 2, snap.Pipeline.Streak)
	assert.InDelta(t, 2378.70, snap.Pipeline.AvgPrice, 0.01)

	assert.Equal(t, 55, snap.Monetization.AvgScore)
	assert.Equal(t, 70, snap.Monetization.PeakScore)
	assert.Equal(t, 2, snap.Outreach.Drafts)
	assert.Equal(t, 2, snap.Outreach.UniqueOrgs)

	text := snap.Text()
	assert.Contains(t, text, "7-day analytics")
	assert.Contains(t, text, "2/3 delivered (66%)")
	assert.Contains(t, text, "avg 55/100")
}

func TestSnapshotIgnoresRecordsOutsideWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	logs := testLogs(t)

	appendRun(t, logs, now.AddDate(0, 0, -30), model.RunStatusFailed, 2100)
	appendRun(t, logs, now.AddDate(0, 0, -1), model.RunStatusSuccess, 2387.40)
	appendScore(t, logs, now.AddDate(0, 0, -30), 90, monetization.StrategyAggressive)

	snap := NewSnapshot(logs, now)
	assert.Equal(t, 1, snap.Pipeline.Total)
	assert.Zero(t, snap.Pipeline.Failed)
	assert.Zero(t, snap.Monetization.Total)
}

func TestSnapshotToleratesEmptyLogs(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(testLogs(t), time.Now())
	assert.Zero(t, snap.Pipeline.Total)
	assert.NotEmpty(t, snap.PriceSpark)
	assert.NotEmpty(t, snap.Text())
}

func TestStageBuildsSnapshotOnWeekdays(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	stage := New(monday, testLogs(t), testLogger(t), 0)

	payload, err := stage.Run(context.Background(), nil)
	require.NoError(t, err)

	data := payload.(*Data)
	require.NotNil(t, data.Snapshot)
	assert.Nil(t, data.Weekly)
}

func TestStagePreparesWeeklyReportOnSunday(t *testing.T) {
	t.Parallel()

	sunday := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	logs := testLogs(t)
	appendRun(t, logs, sunday.AddDate(0, 0, -1), model.RunStatusSuccess, 2390)
	appendScore(t, logs, sunday.AddDate(0, 0, -1), 55, monetization.StrategySoft)

	stage := New(sunday, logs, testLogger(t), 0)
	payload, err := stage.Run(context.Background(), nil)
	require.NoError(t, err)

	data := payload.(*Data)
	require.NotNil(t, data.Weekly)
	assert.Contains(t, data.Weekly.HTML, "Weekly Analytics Report")
	assert.Contains(t, data.Weekly.Text, "Pipeline:")
	assert.Equal(t, sunday, data.Weekly.WeekEnd)
}

func TestBuildReportComputesAllSections(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	logs := testLogs(t)

	for day := 5; day >= 1; day-- {
		when := now.AddDate(0, 0, -day)
		appendRun(t, logs, when, model.RunStatusSuccess, 2350+float64(day))
		appendScore(t, logs, when, 40+day, monetization.StrategyNurture)
		require.NoError(t, logs.SEO.Append(seo.Record{
			RunID: fmt.Sprintf("run-%d", day),
			Date:  when,
			Slug:  fmt.Sprintf("edition-%d", day),
			Tags:  []string{"gold", "africa", "mining"},
		}))
		require.NoError(t, logs.Social.Append(social.Record{
			RunID:   fmt.Sprintf("run-%d", day),
			Date:    when,
			Twitter: "Gold holds near the highs #gold #africa",
		}))
	}

	report, err := BuildReport(logs, now)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Pipeline.Total)
	assert.Equal(t, 5, report.SEO.Total)
	assert.Equal(t, 5, report.SEO.UniqueSlugs)
	assert.InDelta(t, 3.0, report.SEO.AvgTags, 0.01)
	require.NotEmpty(t, report.SEO.TopTags)
	assert.Equal(t, 5, report.SEO.TopTags[0].Count)

	assert.Equal(t, 5, report.Social.Total)
	assert.Positive(t, report.Social.AvgTweetChars)

	assert.Equal(t, 45, report.Monetization.PeakScore)
	assert.Equal(t, 5, report.Monetization.Strategies[monetization.StrategyNurture])

	assert.Contains(t, report.HTML, "Monetization Performance")
	assert.Contains(t, report.Text, "SEO:")
}

func TestSparkline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "──────────────", sparkline(nil))
	assert.Equal(t, "▄▄▄", sparkline([]float64{5, 5, 5}))

	rising := sparkline([]float64{1, 2, 3, 4})
	runes := []rune(rising)
	assert.Equal(t, '█', runes[len(runes)-1])

	// Width caps at the most recent values.
	long := make([]float64, 30)
	for i := range long {
		long[i] = float64(i)
	}
	assert.Len(t, []rune(sparkline(long)), sparkWidth)
}
