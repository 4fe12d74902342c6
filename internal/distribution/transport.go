package distribution

import (
	"context"

	"github.com/africagold/briefing/internal/model"
)

// Post is the platform-facing payload assembled from the rendered edition
// and the SEO metadata.
type Post struct {
	Title       string
	Subtitle    string
	PreviewText string
	Slug        string
	Tags        []string
	FreeHTML    string
	PremiumHTML string
	// Publish commits the post live; false stages it as a draft.
	Publish bool
}

// Result identifies the created post on the platform.
type Result struct {
	PostID string
	URL    string
}

// Transport delivers one post to the publishing platform. Implementations
// own their retry budget; a returned error means the budget is exhausted.
type Transport interface {
	Kind() model.TransportKind
	Publish(ctx context.Context, post *Post) (*Result, error)
}
