package engine

import (
	"context"
	"time"

	"github.com/africagold/briefing/internal/model"
)

// Stage is the uniform contract every pipeline stage implements. The
// executor resolves run order from the declared inputs; a stage never looks
// up another stage directly.
type Stage interface {
	// Name is the stage's unique identifier in the run context and logs.
	Name() string

	// Requires lists stage names whose successful payload is mandatory.
	// If any of them failed or was skipped, this stage is skipped with
	// category upstream_failed.
	Requires() []string

	// Uses lists optional inputs. They only constrain ordering; the stage
	// must degrade gracefully when they are absent.
	Uses() []string

	// Timeout bounds one execution. Zero means no deadline.
	Timeout() time.Duration

	// Run executes the stage against a read-only view of available results
	// and returns the payload to record. Faults are returned, never thrown:
	// the executor converts them into a failed StageResult.
	Run(ctx context.Context, view model.Results) (any, error)
}
