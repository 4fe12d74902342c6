package model

import (
	"time"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

const (
	// StatusSuccess marks a stage that produced its payload.
	StatusSuccess = "success"
	// StatusFailed marks a stage whose fault was caught at the boundary.
	StatusFailed = "failed"
	// StatusSkipped marks a stage short-circuited by a failed required input.
	StatusSkipped = "skipped"
)

// StageResult captures the outcome of executing a single stage. Immutable
// once written into the RunContext.
type StageResult struct {
	Stage     string
	Status    string
	Category  briefingerrors.Category
	Message   string
	Error     error
	Payload   any
	Duration  time.Duration
	Timestamp time.Time
}

// Succeeded reports whether the stage produced a usable payload.
func (r *StageResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}
