package model

import (
	"fmt"
	"sync"
	"time"
)

// Mode selects how far the distribution stage is allowed to go.
type Mode string

const (
	// ModeDryRun builds content and writes local previews only.
	ModeDryRun Mode = "dry-run"
	// ModeDraft stages the edition on the platform for manual review.
	ModeDraft Mode = "draft"
	// ModePublish commits the edition live immediately.
	ModePublish Mode = "publish"
)

// Results is the read-only view of accumulated stage outcomes handed to
// each stage's Run method.
type Results interface {
	// Result returns the recorded outcome for a stage, if any.
	Result(stage string) (*StageResult, bool)
	// Payload returns the payload of a successful stage, or false when the
	// stage failed, was skipped, or has not run.
	Payload(stage string) (any, bool)
}

// RunContext carries the mutable state of one orchestrator invocation.
// Owned exclusively by the orchestrator; concurrent runs get independent
// instances. The results map is the only shared slot and is guarded.
type RunContext struct {
	ID       string
	Date     time.Time
	PostType PostType
	Mode     Mode
	Started  time.Time

	mu      sync.RWMutex
	results map[string]*StageResult
}

// NewRunContext creates a run context with a timestamp-derived identifier.
func NewRunContext(now time.Time, postType PostType, mode Mode) *RunContext {
	return &RunContext{
		ID:       fmt.Sprintf("run-%s", now.Format("20060102-150405")),
		Date:     now,
		PostType: postType,
		Mode:     mode,
		Started:  now,
		results:  make(map[string]*StageResult),
	}
}

// Record stores a stage outcome. Each stage writes exactly once; a second
// write for the same stage is a programming error and panics.
func (rc *RunContext) Record(res *StageResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, exists := rc.results[res.Stage]; exists {
		panic(fmt.Sprintf("stage %q recorded twice in run %s", res.Stage, rc.ID))
	}
	rc.results[res.Stage] = res
}

// Result returns the recorded outcome for a stage, if any.
func (rc *RunContext) Result(stage string) (*StageResult, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	res, ok := rc.results[stage]
	return res, ok
}

// Payload returns the payload of a successful stage.
func (rc *RunContext) Payload(stage string) (any, bool) {
	res, ok := rc.Result(stage)
	if !ok || !res.Succeeded() {
		return nil, false
	}
	return res.Payload, true
}

// Snapshot returns a copy of every recorded result keyed by stage name.
func (rc *RunContext) Snapshot() map[string]*StageResult {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	out := make(map[string]*StageResult, len(rc.results))
	for name, res := range rc.results {
		out[name] = res
	}
	return out
}

var _ Results = (*RunContext)(nil)
