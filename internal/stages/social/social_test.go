package social

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/distribution"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/market"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

type stubResults map[string]any

func (s stubResults) Result(string) (*model.StageResult, bool) { return nil, false }

func (s stubResults) Payload(stage string) (any, bool) {
	payload, ok := s[stage]
	return payload, ok
}

func newStage(t *testing.T) (*Stage, *runlog.Store) {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	aux := runlog.NewStore(filepath.Join(t.TempDir(), "social.jsonl"))
	date := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	return New("run-1", model.PostMondayDeepDive, date, aux, log, 0), aux
}

func fullResults() stubResults {
	return stubResults{
		synthesis.StageName: &synthesis.Output{Edition: &model.RenderedEdition{
			Free:        model.Document{HTML: "<p>x</p>", Slug: "monday-deep-dive-2026-08-24"},
			Title:       "Gold Market Briefing | Aug 24, 2026",
			PreviewText: "Gold holds near record",
		}},
		market.StageName: &market.Data{
			Gold: &feeds.Quote{Price: 2387.40, DayChangePct: 1.2},
		},
		seo.StageName: &seo.Data{Tags: []string{"gold", "africa", "mining", "deep-dive"}},
		distribution.StageName: &model.PublishRecord{
			State:   model.PublishPublished,
			PostURL: "https://app.example.com/posts/monday-deep-dive-2026-08-24",
		},
	}
}

func TestRunDraftsAllChannels(t *testing.T) {
	t.Parallel()

	stage, aux := newStage(t)
	payload, err := stage.Run(context.Background(), fullResults())
	require.NoError(t, err)

	data := payload.(*Data)
	assert.Contains(t, data.Twitter, "$2387.40")
	assert.Contains(t, data.Twitter, "#gold")
	assert.LessOrEqual(t, len([]rune(data.Twitter)), 280)
	assert.Contains(t, data.LinkedIn, "Monday Deep Dive")
	assert.Contains(t, data.LinkedIn, "https://app.example.com/posts/")
	assert.Contains(t, data.WhatsApp, "🌍")

	count, err := aux.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunCopesWithoutOptionalInputs(t *testing.T) {
	t.Parallel()

	stage, _ := newStage(t)
	payload, err := stage.Run(context.Background(), stubResults{
		synthesis.StageName: fullResults()[synthesis.StageName],
	})
	require.NoError(t, err)

	data := payload.(*Data)
	assert.Contains(t, data.Twitter, "Gold Market Briefing")
	assert.NotContains(t, data.Twitter, "$")
	assert.NotContains(t, data.LinkedIn, "https://")
}

func TestRunFailsWithoutEdition(t *testing.T) {
	t.Parallel()

	stage, _ := newStage(t)
	_, err := stage.Run(context.Background(), stubResults{})
	require.Error(t, err)
	assert.Equal(t, briefingerrors.CategoryUpstreamFailed, briefingerrors.CategoryOf(err))
}

func TestHashtagLineDropsDashesAndCapsAtThree(t *testing.T) {
	t.Parallel()

	line := hashtagLine([]string{"gold", "week-in-review", "africa", "mining"})
	assert.Equal(t, "#gold #weekinreview #africa", line)
}

func TestTruncateTweetKeepsLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("g", 300)
	got := truncateTweet(long, 280)
	assert.Equal(t, 280, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
