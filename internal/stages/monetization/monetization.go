package monetization

import (
	"context"
	"errors"
	"time"

	"github.com/africagold/briefing/internal/distribution"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/market"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the monetization stage in the run context.
const StageName = "monetization"

// CTA strategies by opportunity band.
const (
	StrategyAggressive = "premium_upsell_aggressive"
	StrategySoft       = "premium_upsell_soft"
	StrategyNurture    = "engagement_nurture"
)

const streakWindow = 10

// Data is the monetization payload: how hard today's edition should sell.
type Data struct {
	Score    int
	Strategy string
	Streak   int
	CTA      string
}

// Record is the auxiliary log line appended once per run.
type Record struct {
	RunID    string    `json:"run_id"`
	Date     time.Time `json:"date"`
	Score    int       `json:"score"`
	Strategy string    `json:"strategy"`
	Streak   int       `json:"streak"`
}

// Stage scores the monetization opportunity from price action and the
// recent run-log success streak, then picks the CTA strategy.
type Stage struct {
	runID   string
	date    time.Time
	runs    *runlog.Store
	aux     *runlog.Store
	log     *logger.Logger
	timeout time.Duration
}

// New creates the monetization stage. runs is the main run log, read for
// the success streak; aux is this stage's own log.
func New(runID string, date time.Time, runs, aux *runlog.Store, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{runID: runID, date: date, runs: runs, aux: aux, log: log, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return []string{synthesis.StageName} }
func (s *Stage) Uses() []string         { return []string{market.StageName, distribution.StageName} }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, results model.Results) (any, error) {
	if _, ok := results.Payload(synthesis.StageName); !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryUpstreamFailed,
			errors.New("no edition to monetize"))
	}

	streak := s.successStreak()
	score := s.score(results, streak)

	data := &Data{Score: score, Streak: streak}
	switch {
	case score >= 70:
		data.Strategy = StrategyAggressive
		data.CTA = "Premium readers got the full miner margin dashboard this morning. Join them — big moves reward fast readers."
	case score >= 50:
		data.Strategy = StrategySoft
		data.CTA = "The full royalty-gap tables and trade levels are in the premium edition."
	default:
		data.Strategy = StrategyNurture
		data.CTA = "Forward today's briefing to one person who watches gold."
	}

	if err := s.aux.Append(Record{
		RunID:    s.runID,
		Date:     s.date,
		Score:    data.Score,
		Strategy: data.Strategy,
		Streak:   data.Streak,
	}); err != nil {
		s.log.Error(err, "monetization aux log append failed")
	}

	return data, nil
}

// score rewards volatility, momentum extremes, delivery reach, and a
// reliable publishing streak on top of a conservative base.
func (s *Stage) score(results model.Results, streak int) int {
	score := 40

	if raw, ok := results.Payload(market.StageName); ok {
		if mkt := raw.(*market.Data); mkt.Gold != nil {
			pct := mkt.Gold.DayChangePct
			if pct < 0 {
				pct = -pct
			}
			if pct >= 2 {
				score += 15
			} else if pct >= 1 {
				score += 8
			}
			if mkt.Gold.RSI != nil && (*mkt.Gold.RSI >= 70 || *mkt.Gold.RSI <= 30) {
				score += 10
			}
		}
	}

	if raw, ok := results.Payload(distribution.StageName); ok {
		if raw.(*model.PublishRecord).State == model.PublishPublished {
			score += 5
		}
	}

	bonus := streak * 2
	if bonus > 10 {
		bonus = 10
	}
	score += bonus

	if score > 100 {
		score = 100
	}
	return score
}

// successStreak counts consecutive non-failed runs, newest backwards.
func (s *Stage) successStreak() int {
	entries, err := s.runs.TailRuns(streakWindow)
	if err != nil {
		s.log.Error(err, "run log read failed, streak unknown")
		return 0
	}

	streak := 0
	for _, entry := range entries {
		if entry.Status == model.RunStatusFailed {
			break
		}
		streak++
	}
	return streak
}
