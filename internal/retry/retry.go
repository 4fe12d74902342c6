package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is the single retry/backoff policy shared by every data stage.
// Stages parameterize attempts and intervals; the retryable-error predicate
// is expressed by marking non-transient failures Permanent.
type Policy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy allows up to 3 attempts with exponential backoff
// starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Do runs op until it succeeds, returns a permanent error, exhausts the
// attempt budget, or ctx is done.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	// MaxRetries counts retries after the first attempt.
	policy := backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx)
	return backoff.Retry(op, policy)
}

// Permanent marks err as non-transient so the policy stops immediately.
// Malformed schemas and authentication failures are never retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
