package distribution

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// sessionArtifact is the persisted browser session, reused across runs
// until an authentication probe invalidates it.
type sessionArtifact struct {
	Email   string         `json:"email"`
	SavedAt time.Time      `json:"saved_at"`
	Cookies []*http.Cookie `json:"cookies"`
}

// sessionStore persists the session artifact as JSON on disk.
type sessionStore struct {
	path string
}

func newSessionStore(path string) *sessionStore {
	return &sessionStore{path: path}
}

// Load returns the persisted session, or nil when none exists.
func (s *sessionStore) Load() (*sessionArtifact, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session artifact: %w", err)
	}

	var artifact sessionArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		// A corrupt artifact is the same as no session.
		return nil, nil
	}
	return &artifact, nil
}

// Save persists the session artifact, replacing any previous one.
func (s *sessionStore) Save(artifact *sessionArtifact) error {
	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Invalidate removes the persisted session. Missing files are fine.
func (s *sessionStore) Invalidate() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
