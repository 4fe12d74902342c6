package seo

import (
	"context"
	"path/filepath"
	"strings"
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

func editionPayload(slug, title string) *synthesis.Output {
	return &synthesis.Output{Edition: &model.RenderedEdition{
		Free:        model.Document{HTML: "<p>x</p>", Slug: slug},
		Premium:     model.Document{HTML: "<p>y</p>", Slug: slug + "-premium"},
		Title:       title,
		PreviewText: "Gold holds near record as dollar slips and miners rally",
	}}
}

func newStage(t *testing.T, runID string) *Stage {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	aux := runlog.NewStore(filepath.Join(t.TempDir(), "seo.jsonl"))
	return New(runID, model.PostMondayDeepDive, time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC), aux, log, 0)
}

func TestRunProducesMetadataAndAppendsRecord(t *testing.T) {
	t.Parallel()

	stage := newStage(t, "run-1")
	payload, err := stage.Run(context.Background(), stubResults{
		synthesis.StageName: editionPayload("monday-deep-dive-2026-08-24", "Gold Market Briefing | Aug 24, 2026"),
	})
	require.NoError(t, err)

	data := payload.(*Data)
	assert.Equal(t, "monday-deep-dive-2026-08-24", data.Slug)
	assert.Contains(t, data.Tags, "gold")
	assert.Contains(t, data.Tags, "deep-dive")
	assert.NotEmpty(t, data.MetaDescription)
	assert.LessOrEqual(t, len(data.MetaDescription), 160)
	assert.Contains(t, data.JSONLD, `"NewsArticle"`)

	count, err := stage.aux.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInternalLinksComeFromPriorRuns(t *testing.T) {
	t.Parallel()

	stage := newStage(t, "run-1")
	ctx := context.Background()

	_, err := stage.Run(ctx, stubResults{
		synthesis.StageName: editionPayload("friday-trader-intel-2026-08-21", "Gold Market Briefing | Aug 21, 2026"),
	})
	require.NoError(t, err)

	payload, err := stage.Run(ctx, stubResults{
		synthesis.StageName: editionPayload("monday-deep-dive-2026-08-24", "Gold Market Briefing | Aug 24, 2026"),
	})
	require.NoError(t, err)

	data := payload.(*Data)
	require.Len(t, data.InternalLinks, 1)
	assert.Equal(t, "friday-trader-intel-2026-08-21", data.InternalLinks[0].Slug)
}

func TestRunFailsWithoutEdition(t *testing.T) {
	t.Parallel()

	_, err := newStage(t, "run-1").Run(context.Background(), stubResults{})
	require.Error(t, err)
	assert.Equal(t, briefingerrors.CategoryUpstreamFailed, briefingerrors.CategoryOf(err))
}

func TestTruncateKeepsShortStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 20))
	long := strings.Repeat("a", 200)
	got := truncate(long, 155)
	assert.Equal(t, 155, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
