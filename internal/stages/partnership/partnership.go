package partnership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the partnership outreach stage in the run context.
const StageName = "partnership_outreach"

// Outreach cadence: drafts are prepared on Mondays and Thursdays; the other
// days only report when the next batch is due.
var outreachDays = map[time.Weekday]bool{
	time.Monday:   true,
	time.Thursday: true,
}

// target is one organisation on the standing outreach list.
type target struct {
	Name    string
	Contact string
	Angle   string
}

var targets = []target{
	{Name: "Ghana Chamber of Mines", Contact: "info@ghanachamberofmines.org", Angle: "member briefing syndication"},
	{Name: "Minerals Council South Africa", Contact: "media@mineralscouncil.org.za", Angle: "margin dashboard licensing"},
	{Name: "Dubai Gold & Jewellery Group", Contact: "contact@dgjg.ae", Angle: "karat pricing feed for retail members"},
	{Name: "African Mining Indaba", Contact: "partnerships@miningindaba.com", Angle: "conference media partnership"},
}

// Draft is one outreach email ready for operator review.
type Draft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Data is the partnership payload.
type Data struct {
	Due     bool
	NextDue time.Time
	Drafts  []Draft
}

// Record is the auxiliary log line appended once per run.
type Record struct {
	RunID  string    `json:"run_id"`
	Date   time.Time `json:"date"`
	Due    bool      `json:"due"`
	Drafts []Draft   `json:"drafts,omitempty"`
}

// Stage drafts partnership outreach emails on the standing cadence.
type Stage struct {
	runID   string
	date    time.Time
	aux     *runlog.Store
	log     *logger.Logger
	timeout time.Duration
}

// New creates the partnership stage for one run.
func New(runID string, date time.Time, aux *runlog.Store, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{runID: runID, date: date, aux: aux, log: log, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return []string{synthesis.StageName} }
func (s *Stage) Uses() []string         { return nil }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, results model.Results) (any, error) {
	raw, ok := results.Payload(synthesis.StageName)
	if !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryUpstreamFailed,
			errors.New("no edition to reference in outreach"))
	}
	edition := raw.(*synthesis.Output).Edition

	data := &Data{Due: outreachDays[s.date.Weekday()], NextDue: nextDue(s.date)}
	if data.Due {
		for _, target := range targets {
			data.Drafts = append(data.Drafts, draft(target, edition))
		}
	}

	if err := s.aux.Append(Record{RunID: s.runID, Date: s.date, Due: data.Due, Drafts: data.Drafts}); err != nil {
		s.log.Error(err, "partnership aux log append failed")
	}

	return data, nil
}

func draft(target target, edition *model.RenderedEdition) Draft {
	body := fmt.Sprintf(
		"Hello %s team,\n\n"+
			"We publish a daily gold intelligence briefing focused on African producers, "+
			"royalty transparency, and local retail pricing. Today's edition, %q, "+
			"is a good example of the coverage.\n\n"+
			"We would like to discuss %s. Would a short call this week work?\n\n"+
			"Best regards,\nAfrica Gold Intelligence",
		target.Name, edition.Title, target.Angle)
	return Draft{
		To:      target.Contact,
		Subject: "Partnership: Africa Gold Intelligence × " + target.Name,
		Body:    body,
	}
}

// nextDue returns the next outreach day strictly after date.
func nextDue(date time.Time) time.Time {
	next := date.AddDate(0, 0, 1)
	for !outreachDays[next.Weekday()] {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
