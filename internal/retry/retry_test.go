package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts uint64) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestDoStopsAfterAttemptBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestDoSucceedsMidBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	authFailed := errors.New("authentication failed")
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		return Permanent(authFailed)
	})
	require.ErrorIs(t, err, authFailed)
	require.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{MaxAttempts: 10, InitialInterval: 50 * time.Millisecond}.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
