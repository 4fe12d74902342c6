package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func enabledConfig() config.NotifyConfig {
	return config.NotifyConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 465,
		Operator: "ops@example.com",
		Password: "hunter2",
	}
}

func TestSendSkipsWhenDisabled(t *testing.T) {
	t.Parallel()

	n := New(config.NotifyConfig{Operator: "ops@example.com"}, testLogger(t))
	called := false
	n.send = func(context.Context, *mail.Msg) error {
		called = true
		return nil
	}

	assert.False(t, n.Enabled())
	n.Send(context.Background(), Message{Subject: "s", Text: "b"})
	assert.False(t, called)
}

func TestSendDeliversToOperator(t *testing.T) {
	t.Parallel()

	n := New(enabledConfig(), testLogger(t))
	var sent *mail.Msg
	n.send = func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	n.Send(context.Background(), Message{Subject: "hello", Text: "body", HTML: "<p>body</p>"})

	require.NotNil(t, sent)
	to, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, to)
}

func TestSendSwallowsTransportErrors(t *testing.T) {
	t.Parallel()

	n := New(enabledConfig(), testLogger(t))
	n.send = func(context.Context, *mail.Msg) error {
		return errors.New("smtp down")
	}

	// Must not panic or propagate.
	n.Send(context.Background(), Message{Subject: "s", Text: "b"})
}

func runEntry(status string, publish *model.PublishRecord) *model.RunLogEntry {
	return &model.RunLogEntry{
		RunID:     "run-20260824-060000",
		Timestamp: time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC),
		Status:    status,
		PostType:  model.PostMondayDeepDive,
		Mode:      model.ModeDraft,
		GoldPrice: 2387.40,
		Stages: map[string]model.StageRecord{
			"market_intelligence": {Status: model.StatusSuccess},
			"content_synthesis":   {Status: model.StatusSuccess},
		},
		Publish:  publish,
		ElapsedS: 12.5,
	}
}

func TestRunMessageDraftReady(t *testing.T) {
	t.Parallel()

	msg := RunMessage(runEntry(model.RunStatusSuccess, &model.PublishRecord{
		State:   model.PublishDrafted,
		PostURL: "https://app.example.com/posts/x",
	}), "")

	assert.Contains(t, msg.Subject, "Draft ready")
	assert.Contains(t, msg.Text, "https://app.example.com/posts/x")
	assert.Contains(t, msg.Text, "market_intelligence")
}

func TestRunMessagePublished(t *testing.T) {
	t.Parallel()

	msg := RunMessage(runEntry(model.RunStatusSuccess, &model.PublishRecord{State: model.PublishPublished}), "")
	assert.Contains(t, msg.Subject, "published")
}

func TestRunMessageAppendsAnalyticsSnapshot(t *testing.T) {
	t.Parallel()

	snapshot := "7-day analytics\n  Runs:       5/6 delivered (83%), streak 3d\n"
	msg := RunMessage(runEntry(model.RunStatusSuccess, &model.PublishRecord{State: model.PublishDrafted}), snapshot)
	assert.Contains(t, msg.Text, "7-day analytics")
	assert.Contains(t, msg.Text, "5/6 delivered")
}

func TestWeeklyReportMessage(t *testing.T) {
	t.Parallel()

	msg := WeeklyReport(time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
		"Pipeline: 5/6 delivered", "<h1>Weekly Analytics Report</h1>")
	assert.Contains(t, msg.Subject, "Weekly analytics report")
	assert.Contains(t, msg.Subject, "Aug 30, 2026")
	assert.Contains(t, msg.Text, "Pipeline:")
	assert.Contains(t, msg.HTML, "Weekly Analytics Report")
}

func TestRunMessageFailure(t *testing.T) {
	t.Parallel()

	entry := runEntry(model.RunStatusFailed, nil)
	entry.Stages["content_synthesis"] = model.StageRecord{
		Status:   model.StatusFailed,
		Category: briefingerrors.CategoryInsufficientContent,
		Message:  "market intelligence unavailable",
	}

	msg := RunMessage(entry, "")
	assert.Contains(t, msg.Subject, "FAILED")
	assert.Contains(t, msg.Text, "insufficient_content")
}

func TestRunMessageDegradedGetsWarningPrefix(t *testing.T) {
	t.Parallel()

	entry := runEntry(model.RunStatusDegraded, &model.PublishRecord{State: model.PublishDrafted})
	entry.Warnings = []string{"WARNING: No news headlines fetched."}

	msg := RunMessage(entry, "")
	assert.Contains(t, msg.Subject, "⚠️")
	assert.Contains(t, msg.Text, "No news headlines fetched")
}

func TestFallbackEditionCarriesFullContent(t *testing.T) {
	t.Parallel()

	msg := FallbackEdition(&model.RenderedEdition{
		Title:   "Gold Market Briefing | Aug 24, 2026",
		Premium: model.Document{HTML: "<p>premium</p>", Plaintext: "premium"},
	})

	assert.Contains(t, msg.Subject, "fallback")
	assert.Contains(t, msg.Text, "premium")
	assert.Equal(t, "<p>premium</p>", msg.HTML)
}
