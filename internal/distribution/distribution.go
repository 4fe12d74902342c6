package distribution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/retry"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the distribution stage in the run context.
const StageName = "distribution"

// Transports selects the delivery path. The API transport leads when the
// key is configured and the account tier supports it; the browser transport
// is always available as the fallback.
func Transports(cfg config.BeehiivConfig, log *logger.Logger) ([]Transport, error) {
	browser, err := NewBrowserTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.APIKey != "" && cfg.APITierSupported {
		return []Transport{NewAPITransport(cfg, log), browser}, nil
	}
	return []Transport{browser}, nil
}

// Stage delivers the rendered edition. Dry-run stops at local preview
// artifacts; draft and publish modes walk the transport list until one
// succeeds.
type Stage struct {
	previewDir string
	mode       model.Mode
	transports []Transport
	policy     retry.Policy
	log        *logger.Logger
	timeout    time.Duration
}

// New creates the distribution stage for one run.
func New(previewDir string, mode model.Mode, transports []Transport, policy retry.Policy, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{
		previewDir: previewDir,
		mode:       mode,
		transports: transports,
		policy:     policy,
		log:        log,
		timeout:    timeout,
	}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return []string{synthesis.StageName} }
func (s *Stage) Uses() []string         { return []string{seo.StageName} }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(ctx context.Context, results model.Results) (any, error) {
	raw, ok := results.Payload(synthesis.StageName)
	if !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryUpstreamFailed,
			errors.New("no edition to distribute"))
	}
	edition := raw.(*synthesis.Output).Edition

	post := s.buildPost(edition, results)

	if s.mode == model.ModeDryRun {
		return s.writePreviews(edition)
	}

	var lastErr error
	for _, transport := range s.transports {
		result, err := s.attempt(ctx, transport, post)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrPlanGate) {
				s.log.Warn("API transport plan-gated, falling back to browser")
			} else {
				s.log.Error(err, fmt.Sprintf("%s transport failed", transport.Kind()))
			}
			continue
		}

		state := model.PublishDrafted
		if post.Publish {
			state = model.PublishPublished
		}
		return &model.PublishRecord{
			PostID:    result.PostID,
			PostURL:   result.URL,
			Transport: transport.Kind(),
			State:     state,
		}, nil
	}

	if lastErr == nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDistributionFailed,
			errors.New("no transports configured"))
	}
	return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDistributionFailed,
		fmt.Errorf("all transports exhausted: %w", lastErr))
}

func (s *Stage) buildPost(edition *model.RenderedEdition, results model.Results) *Post {
	post := &Post{
		Title:       edition.Title,
		Subtitle:    edition.Subtitle,
		PreviewText: edition.PreviewText,
		Slug:        edition.Free.Slug,
		FreeHTML:    edition.Free.HTML,
		PremiumHTML: edition.Premium.HTML,
		Publish:     s.mode == model.ModePublish,
	}
	if raw, ok := results.Payload(seo.StageName); ok {
		meta := raw.(*seo.Data)
		post.Slug = meta.Slug
		post.Tags = meta.Tags
	}
	return post
}

// attempt runs one transport. The API path gets the retry policy for
// transient failures; the browser transport carries its own single-retry
// budget internally.
func (s *Stage) attempt(ctx context.Context, transport Transport, post *Post) (*Result, error) {
	if transport.Kind() != model.TransportAPI {
		return transport.Publish(ctx, post)
	}

	var result *Result
	err := s.policy.Do(ctx, func() error {
		r, err := transport.Publish(ctx, post)
		if err != nil {
			if errors.Is(err, ErrPlanGate) {
				return retry.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// writePreviews renders the dry-run artifacts and leaves the state machine
// untouched.
func (s *Stage) writePreviews(edition *model.RenderedEdition) (*model.PublishRecord, error) {
	if err := os.MkdirAll(s.previewDir, 0o755); err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryStorageUnavailable, err)
	}

	record := &model.PublishRecord{State: model.PublishNotStarted}

	files := []struct {
		name string
		body string
		dest *string
	}{
		{edition.Free.Slug + ".html", edition.Free.HTML, &record.PreviewFree},
		{edition.Free.Slug + ".txt", edition.Free.Plaintext, nil},
		{edition.Premium.Slug + ".html", edition.Premium.HTML, &record.PreviewPrem},
		{edition.Premium.Slug + ".txt", edition.Premium.Plaintext, nil},
	}
	for _, file := range files {
		path := filepath.Join(s.previewDir, file.name)
		if err := os.WriteFile(path, []byte(file.body), 0o644); err != nil {
			return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryStorageUnavailable, err)
		}
		if file.dest != nil {
			*file.dest = path
		}
	}

	s.log.WithFields(map[string]any{"dir": s.previewDir}).Info("dry run: previews written")
	return record, nil
}
