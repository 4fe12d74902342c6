package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/africagold/briefing/internal/distribution"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/market"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the social media stage in the run context.
const StageName = "social_media"

const twitterMax = 280

// Data is the social payload: ready-to-post copy per channel.
type Data struct {
	Twitter  string
	LinkedIn string
	WhatsApp string
}

// Record is the auxiliary log line appended once per run.
type Record struct {
	RunID    string    `json:"run_id"`
	Date     time.Time `json:"date"`
	Twitter  string    `json:"twitter"`
	LinkedIn string    `json:"linkedin"`
	WhatsApp string    `json:"whatsapp"`
}

// Stage drafts channel copy for the day's edition. Price action and the
// published post URL enrich the copy when available.
type Stage struct {
	runID    string
	postType model.PostType
	date     time.Time
	aux      *runlog.Store
	log      *logger.Logger
	timeout  time.Duration
}

// New creates the social stage for one run.
func New(runID string, postType model.PostType, date time.Time, aux *runlog.Store, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{runID: runID, postType: postType, date: date, aux: aux, log: log, timeout: timeout}
}

func (s *Stage) Name() string       { return StageName }
func (s *Stage) Requires() []string { return []string{synthesis.StageName} }
func (s *Stage) Uses() []string {
	return []string{market.StageName, seo.StageName, distribution.StageName}
}
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, results model.Results) (any, error) {
	raw, ok := results.Payload(synthesis.StageName)
	if !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryUpstreamFailed,
			errors.New("no edition to promote"))
	}
	edition := raw.(*synthesis.Output).Edition

	priceLine := ""
	if raw, ok := results.Payload(market.StageName); ok {
		if mkt := raw.(*market.Data); mkt.Gold != nil {
			priceLine = fmt.Sprintf("Gold $%.2f (%+.1f%% today). ", mkt.Gold.Price, mkt.Gold.DayChangePct)
		}
	}

	hashtags := "#gold #africa"
	if raw, ok := results.Payload(seo.StageName); ok {
		hashtags = hashtagLine(raw.(*seo.Data).Tags)
	}

	postURL := ""
	if raw, ok := results.Payload(distribution.StageName); ok {
		postURL = raw.(*model.PublishRecord).PostURL
	}

	data := &Data{
		Twitter:  truncateTweet(priceLine+edition.Title+" "+hashtags+link(postURL), twitterMax),
		LinkedIn: s.linkedIn(edition, priceLine, postURL),
		WhatsApp: s.whatsApp(edition, priceLine, postURL),
	}

	if err := s.aux.Append(Record{
		RunID:    s.runID,
		Date:     s.date,
		Twitter:  data.Twitter,
		LinkedIn: data.LinkedIn,
		WhatsApp: data.WhatsApp,
	}); err != nil {
		s.log.Error(err, "social aux log append failed")
	}

	return data, nil
}

func (s *Stage) linkedIn(edition *model.RenderedEdition, priceLine, postURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s\n\n", edition.Title, s.postType.Label())
	b.WriteString(priceLine)
	if edition.PreviewText != "" {
		b.WriteString(edition.PreviewText + "\n\n")
	}
	b.WriteString("Today's briefing covers African producer margins, royalty gaps, and the levels that matter.")
	b.WriteString(link(postURL))
	return b.String()
}

func (s *Stage) whatsApp(edition *model.RenderedEdition, priceLine, postURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌍 *%s*\n", edition.Title)
	b.WriteString(priceLine)
	b.WriteString("\nFull briefing:" + link(postURL))
	return b.String()
}

func link(postURL string) string {
	if postURL == "" {
		return ""
	}
	return "\n" + postURL
}

func hashtagLine(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, "#"+strings.ReplaceAll(tag, "-", ""))
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func truncateTweet(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
