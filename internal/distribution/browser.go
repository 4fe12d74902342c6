package distribution

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
)

// errSessionInvalid marks a request bounced by the platform's auth layer.
var errSessionInvalid = errors.New("browser session no longer authenticated")

// BrowserTransport drives the platform's web app with a cookie session,
// covering accounts whose plan gates the keyed API. The session persists
// across runs; an invalidated session triggers one fresh login and exactly
// one publish retry.
type BrowserTransport struct {
	cfg      config.BeehiivConfig
	sessions *sessionStore
	client   *http.Client
	log      *logger.Logger
}

// NewBrowserTransport creates the browser transport.
func NewBrowserTransport(cfg config.BeehiivConfig, log *logger.Logger) (*BrowserTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &BrowserTransport{
		cfg:      cfg,
		sessions: newSessionStore(cfg.SessionFile),
		client:   &http.Client{Jar: jar, Timeout: 60 * time.Second},
		log:      log,
	}, nil
}

func (t *BrowserTransport) Kind() model.TransportKind { return model.TransportBrowser }

// Publish submits the post through the web app's compose flow.
func (t *BrowserTransport) Publish(ctx context.Context, post *Post) (*Result, error) {
	if err := t.restoreSession(); err != nil {
		return nil, err
	}

	if !t.authenticated(ctx) {
		if err := t.login(ctx); err != nil {
			return nil, err
		}
	}

	result, err := t.submit(ctx, post)
	if errors.Is(err, errSessionInvalid) {
		// Session died between probe and submit. Re-login and retry once.
		t.log.Warn("browser session invalidated mid-publish, re-authenticating")
		if err := t.sessions.Invalidate(); err != nil {
			return nil, err
		}
		if err := t.login(ctx); err != nil {
			return nil, err
		}
		return t.submit(ctx, post)
	}
	return result, err
}

// restoreSession loads persisted cookies into the jar.
func (t *BrowserTransport) restoreSession() error {
	artifact, err := t.sessions.Load()
	if err != nil {
		return err
	}
	if artifact == nil {
		return nil
	}

	base, err := url.Parse(t.cfg.AppBaseURL)
	if err != nil {
		return fmt.Errorf("parsing app base URL: %w", err)
	}
	t.client.Jar.SetCookies(base, artifact.Cookies)
	return nil
}

// authenticated probes the compose page. A login form in the response means
// the session is stale.
func (t *BrowserTransport) authenticated(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.appURL("/posts/new"), nil)
	if err != nil {
		return false
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return false
	}
	return doc.Find(`form input[type="password"]`).Length() == 0
}

// login performs a fresh credential login and persists the new session.
func (t *BrowserTransport) login(ctx context.Context) error {
	form := url.Values{
		"email":    {t.cfg.Email},
		"password": {t.cfg.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.appURL("/login"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("logging in to platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("platform rejected credentials for %s", t.cfg.Email)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("platform login returned HTTP %d", resp.StatusCode)
	}

	base, err := url.Parse(t.cfg.AppBaseURL)
	if err != nil {
		return fmt.Errorf("parsing app base URL: %w", err)
	}
	artifact := &sessionArtifact{
		Email:   t.cfg.Email,
		SavedAt: time.Now().UTC(),
		Cookies: t.client.Jar.Cookies(base),
	}
	if err := t.sessions.Save(artifact); err != nil {
		// A session that only lives for this run is still a working session.
		t.log.Error(err, "persisting browser session failed")
	}
	return nil
}

// submit posts the compose form.
func (t *BrowserTransport) submit(ctx context.Context, post *Post) (*Result, error) {
	status := "draft"
	if post.Publish {
		status = "published"
	}
	form := url.Values{
		"title":           {post.Title},
		"subtitle":        {post.Subtitle},
		"slug":            {post.Slug},
		"preview_text":    {post.PreviewText},
		"tags":            {strings.Join(post.Tags, ",")},
		"status":          {status},
		"free_content":    {post.FreeHTML},
		"premium_content": {post.PremiumHTML},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.appURL("/posts"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting post: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errSessionInvalid
	case resp.StatusCode < 200 || resp.StatusCode >= 400:
		return nil, fmt.Errorf("post submission returned HTTP %d", resp.StatusCode)
	}

	return &Result{URL: t.appURL("/posts/" + post.Slug)}, nil
}

func (t *BrowserTransport) appURL(path string) string {
	return strings.TrimSuffix(t.cfg.AppBaseURL, "/") + path
}
