package seo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the SEO optimization stage in the run context.
const StageName = "seo_optimization"

const (
	metaDescriptionMax = 155
	maxInternalLinks   = 3
)

var baseTags = []string{"gold", "africa", "mining", "commodities"}

var editionTags = map[model.PostType][]string{
	model.PostMondayDeepDive: {"deep-dive", "analysis"},
	model.PostAfricaRegional: {"regional", "west-africa"},
	model.PostAggregator:     {"news-roundup"},
	model.PostAfricaPremium:  {"premium", "royalties"},
	model.PostTraderIntel:    {"trading", "technicals"},
	model.PostAnalysis:       {"analysis", "macro"},
	model.PostWeekReview:     {"week-in-review"},
}

// Link is one internal-link suggestion drawn from recent editions.
type Link struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Data is the SEO payload consumed by distribution and social.
type Data struct {
	Slug            string
	Tags            []string
	MetaDescription string
	JSONLD          string
	InternalLinks   []Link
}

// Record is the auxiliary log line appended once per run.
type Record struct {
	RunID string    `json:"run_id"`
	Date  time.Time `json:"date"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
	Tags  []string  `json:"tags"`
}

// Stage derives slug, tags, meta description, and structured data for the
// edition, and mines its own log for internal-link suggestions.
type Stage struct {
	runID    string
	postType model.PostType
	date     time.Time
	aux      *runlog.Store
	log      *logger.Logger
	timeout  time.Duration
}

// New creates the SEO stage for one run.
func New(runID string, postType model.PostType, date time.Time, aux *runlog.Store, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{runID: runID, postType: postType, date: date, aux: aux, log: log, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return []string{synthesis.StageName} }
func (s *Stage) Uses() []string         { return nil }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, results model.Results) (any, error) {
	raw, ok := results.Payload(synthesis.StageName)
	if !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryUpstreamFailed,
			errors.New("no edition to optimize"))
	}
	edition := raw.(*synthesis.Output).Edition

	data := &Data{
		Slug:            edition.Free.Slug,
		Tags:            tags(s.postType),
		MetaDescription: truncate(edition.PreviewText, metaDescriptionMax),
		InternalLinks:   s.internalLinks(),
	}

	jsonld, err := structuredData(edition.Title, data.MetaDescription, s.date)
	if err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryInternal, err)
	}
	data.JSONLD = jsonld

	if err := s.aux.Append(Record{
		RunID: s.runID,
		Date:  s.date,
		Slug:  data.Slug,
		Title: edition.Title,
		Tags:  data.Tags,
	}); err != nil {
		// The payload is still usable; losing one aux line is not.
		s.log.Error(err, "seo aux log append failed")
	}

	return data, nil
}

func tags(postType model.PostType) []string {
	out := append([]string(nil), baseTags...)
	return append(out, editionTags[postType]...)
}

// internalLinks suggests the most recent prior editions, newest first.
func (s *Stage) internalLinks() []Link {
	raw, err := s.aux.Tail(maxInternalLinks)
	if err != nil {
		s.log.Error(err, "seo aux log read failed")
		return nil
	}

	var links []Link
	for _, line := range raw {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Slug == "" {
			continue
		}
		links = append(links, Link{Slug: rec.Slug, Title: rec.Title})
	}
	return links
}

func structuredData(title, description string, date time.Time) (string, error) {
	doc := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "NewsArticle",
		"headline":      title,
		"description":   description,
		"datePublished": date.Format(time.RFC3339),
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  "Africa Gold Intelligence",
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("building structured data: %w", err)
	}
	return string(data), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
