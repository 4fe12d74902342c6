package orchestrator

import (
	"time"

	"github.com/africagold/briefing/internal/distribution"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/market"
	"github.com/africagold/briefing/internal/stages/synthesis"
)

// report builds the run-log entry and appends it. The entry is returned
// even when the append fails so notification still has something to say.
func (o *Orchestrator) report(runs *runlog.Store, rc *model.RunContext) (*model.RunLogEntry, error) {
	entry := BuildEntry(rc, o.now())
	return entry, runs.Append(entry)
}

// BuildEntry projects the run context into one durable audit record.
func BuildEntry(rc *model.RunContext, finished time.Time) *model.RunLogEntry {
	snapshot := rc.Snapshot()

	entry := &model.RunLogEntry{
		RunID:     rc.ID,
		Timestamp: finished,
		PostType:  rc.PostType,
		Mode:      rc.Mode,
		Stages:    make(map[string]model.StageRecord, len(snapshot)),
		ElapsedS:  finished.Sub(rc.Started).Seconds(),
	}
	for name, res := range snapshot {
		entry.Stages[name] = model.NewStageRecord(res)
	}

	if raw, ok := rc.Payload(market.StageName); ok {
		mkt := raw.(*market.Data)
		if mkt.Gold != nil {
			entry.GoldPrice = mkt.Gold.Price
			entry.DayChangePct = mkt.Gold.DayChangePct
		}
		entry.Headlines = len(mkt.News)
		entry.Warnings = append(entry.Warnings, mkt.Warnings...)
	}
	if raw, ok := rc.Payload(synthesis.StageName); ok {
		entry.Warnings = append(entry.Warnings, raw.(*synthesis.Output).Degraded...)
	}

	if raw, ok := rc.Payload(distribution.StageName); ok {
		entry.Publish = raw.(*model.PublishRecord)
	} else if res, ok := rc.Result(distribution.StageName); ok && res.Status == model.StatusFailed {
		// A failed stage exposes no payload; synthesize the terminal state.
		entry.Publish = &model.PublishRecord{State: model.PublishFailed}
	}

	entry.Status = classify(rc, entry)
	return entry
}

// classify maps the stage outcomes onto the run-level status. Failure is
// reserved for a dead market feed, an edition that could not be written,
// and a publish-mode delivery failure; everything else that finished is at
// worst degraded.
func classify(rc *model.RunContext, entry *model.RunLogEntry) string {
	failed := func(stage string) bool {
		res, ok := rc.Result(stage)
		return ok && res.Status == model.StatusFailed
	}

	switch {
	case failed(market.StageName),
		failed(synthesis.StageName),
		rc.Mode == model.ModePublish && failed(distribution.StageName):
		return model.RunStatusFailed
	}

	if rc.Mode == model.ModeDryRun {
		return model.RunStatusDryRun
	}

	for _, res := range rc.Snapshot() {
		if res.Status != model.StatusSuccess {
			return model.RunStatusDegraded
		}
	}
	if len(entry.Warnings) > 0 {
		return model.RunStatusDegraded
	}
	return model.RunStatusSuccess
}
