package model

import (
	"time"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// Run-level statuses recorded in the durable log. One entry exists per
// invocation regardless of where failure occurred.
const (
	RunStatusSuccess  = "SUCCESS"
	RunStatusDegraded = "DEGRADED"
	RunStatusDryRun   = "DRY_RUN"
	RunStatusFailed   = "FAILED"
)

// StageRecord is the serializable projection of a StageResult.
type StageRecord struct {
	Status     string                  `json:"status"`
	Category   briefingerrors.Category `json:"category,omitempty"`
	Message    string                  `json:"message,omitempty"`
	DurationMS int64                   `json:"duration_ms"`
}

// RunLogEntry is the append-only audit record written at the end of every
// run. Created by reporting, never mutated.
type RunLogEntry struct {
	RunID        string                 `json:"run_id"`
	Timestamp    time.Time              `json:"ts"`
	Status       string                 `json:"status"`
	PostType     PostType               `json:"post_type"`
	Mode         Mode                   `json:"mode"`
	GoldPrice    float64                `json:"gold_price,omitempty"`
	DayChangePct float64                `json:"day_pct,omitempty"`
	Headlines    int                    `json:"headlines,omitempty"`
	Stages       map[string]StageRecord `json:"stages"`
	Publish      *PublishRecord         `json:"publish,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	ElapsedS     float64                `json:"elapsed_s"`
}

// NewStageRecord projects a StageResult for the run log.
func NewStageRecord(res *StageResult) StageRecord {
	return StageRecord{
		Status:     res.Status,
		Category:   res.Category,
		Message:    res.Message,
		DurationMS: res.Duration.Milliseconds(),
	}
}
