package partnership

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

type stubResults map[string]any

func (s stubResults) Result(string) (*model.StageResult, bool) { return nil, false }

func (s stubResults) Payload(stage string) (any, bool) {
	payload, ok := s[stage]
	return payload, ok
}

func editionResults() stubResults {
	return stubResults{
		synthesis.StageName: &synthesis.Output{Edition: &model.RenderedEdition{
			Free:  model.Document{HTML: "<p>x</p>"},
			Title: "Gold Market Briefing | Aug 24, 2026",
		}},
	}
}

func newStage(t *testing.T, date time.Time) (*Stage, *runlog.Store) {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	aux := runlog.NewStore(filepath.Join(t.TempDir(), "partnership.jsonl"))
	return New("run-1", date, aux, log, 0), aux
}

func TestRunDraftsOutreachOnCadenceDays(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	stage, aux := newStage(t, monday)

	payload, err := stage.Run(context.Background(), editionResults())
	require.NoError(t, err)

	data := payload.(*Data)
	assert.True(t, data.Due)
	require.Len(t, data.Drafts, len(targets))
	for _, draft := range data.Drafts {
		assert.NotEmpty(t, draft.To)
		assert.Contains(t, draft.Subject, "Partnership")
		assert.Contains(t, draft.Body, "Gold Market Briefing | Aug 24, 2026")
	}

	count, err := aux.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunSkipsDraftsOffCadence(t *testing.T) {
	t.Parallel()

	tuesday := time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)
	stage, _ := newStage(t, tuesday)

	payload, err := stage.Run(context.Background(), editionResults())
	require.NoError(t, err)

	data := payload.(*Data)
	assert.False(t, data.Due)
	assert.Empty(t, data.Drafts)
	// Next outreach day after Tuesday is Thursday.
	assert.Equal(t, time.Thursday, data.NextDue.Weekday())
	assert.Equal(t, 27, data.NextDue.Day())
}

func TestRunFailsWithoutEdition(t *testing.T) {
	t.Parallel()

	stage, _ := newStage(t, time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC))
	_, err := stage.Run(context.Background(), stubResults{})
	require.Error(t, err)
	assert.Equal(t, briefingerrors.CategoryUpstreamFailed, briefingerrors.CategoryOf(err))
}
