// Package runlock serializes orchestrator invocations per calendar date.
// Two processes racing to publish the same day's edition is the one failure
// mode the pipeline can never repair after the fact.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// Lock is a held advisory lock for one run date.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the date's advisory lock without blocking. A second
// invocation for the same date fails fast with run_already_in_progress.
func Acquire(dir string, date time.Time) (*Lock, error) {
	day := date.Format("2006-01-02")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, briefingerrors.NewLockError(day, fmt.Errorf("creating lock directory: %w", err))
	}

	fl := flock.New(filepath.Join(dir, fmt.Sprintf("briefing-%s.lock", day)))
	held, err := fl.TryLock()
	if err != nil {
		return nil, briefingerrors.NewLockError(day, fmt.Errorf("acquiring run lock: %w", err))
	}
	if !held {
		return nil, briefingerrors.NewLockError(day, nil)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The lock file itself stays behind; flock state is
// what matters.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
