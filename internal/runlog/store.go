package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/africagold/briefing/internal/model"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// Store is an append-only JSONL log: one record per line, newest appended
// last. The run log and every per-stage auxiliary log use the same store,
// each keyed by the shared run id.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path. The file and its
// directory are created lazily on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Append marshals record and appends it as one line. Failures surface as
// storage_unavailable so callers can downgrade them to diagnostics.
func (s *Store) Append(record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return briefingerrors.NewStageError("", briefingerrors.CategoryStorageUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return briefingerrors.NewStageError("", briefingerrors.CategoryStorageUnavailable, err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return briefingerrors.NewStageError("", briefingerrors.CategoryStorageUnavailable, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return briefingerrors.NewStageError("", briefingerrors.CategoryStorageUnavailable, err)
	}
	return nil
}

// Tail returns up to n records, newest first. A missing file is an empty
// log, not an error.
func (s *Store) Tail(n int) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append(json.RawMessage(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	// Reverse to newest-first for the diagnostic view.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

// Count returns the number of records in the log.
func (s *Store) Count() (int, error) {
	records, err := s.Tail(1 << 30)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// TailRuns decodes the newest n run-log entries.
func (s *Store) TailRuns(n int) ([]model.RunLogEntry, error) {
	raw, err := s.Tail(n)
	if err != nil {
		return nil, err
	}

	entries := make([]model.RunLogEntry, 0, len(raw))
	for _, line := range raw {
		var entry model.RunLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Tolerate foreign lines; the log is append-only and long-lived.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
