package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/model"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "logs", "run_log.jsonl"))
}

func TestAppendCreatesDirectoryAndFile(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	require.NoError(t, store.Append(map[string]string{"run_id": "run-1"}))

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestTailReturnsNewestFirst(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(model.RunLogEntry{
			RunID:     string(rune('a' + i)),
			Timestamp: time.Now(),
		}))
	}

	entries, err := store.TailRuns(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "e", entries[0].RunID)
	require.Equal(t, "d", entries[1].RunID)
	require.Equal(t, "c", entries[2].RunID)
}

func TestTailOnMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	entries, err := tempStore(t).Tail(5)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAppendIsIdempotencyFree(t *testing.T) {
	t.Parallel()

	// Two appends of the same record are two lines: no deduplication, no loss.
	store := tempStore(t)
	entry := model.RunLogEntry{RunID: "run-dup", Timestamp: time.Now()}
	require.NoError(t, store.Append(entry))
	require.NoError(t, store.Append(entry))

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestAppendFailureIsStorageUnavailable(t *testing.T) {
	t.Parallel()

	// A directory at the log path makes the open fail.
	dir := t.TempDir()
	store := NewStore(dir)
	err := store.Append(map[string]string{"run_id": "run-1"})
	require.Error(t, err)
	require.Equal(t, briefingerrors.CategoryStorageUnavailable, briefingerrors.CategoryOf(err))
}
