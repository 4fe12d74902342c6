package distribution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
)

// ErrPlanGate marks the platform refusing API post creation for the account
// tier. Not retryable; callers fall back to the browser transport.
var ErrPlanGate = errors.New("account tier does not allow post creation via API")

const planGateCode = "SEND_API_DISABLED"

// APITransport creates posts through the platform's keyed HTTP API.
type APITransport struct {
	cfg    config.BeehiivConfig
	client *http.Client
	log    *logger.Logger
}

// NewAPITransport creates the API transport.
func NewAPITransport(cfg config.BeehiivConfig, log *logger.Logger) *APITransport {
	return &APITransport{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (t *APITransport) Kind() model.TransportKind { return model.TransportAPI }

type apiPostRequest struct {
	Title             string   `json:"title"`
	Subtitle          string   `json:"subtitle,omitempty"`
	Slug              string   `json:"slug,omitempty"`
	PreviewText       string   `json:"preview_text,omitempty"`
	ContentTags       []string `json:"content_tags,omitempty"`
	Status            string   `json:"status"`
	FreeWebContent    string   `json:"free_web_content"`
	PremiumWebContent string   `json:"premium_web_content,omitempty"`
}

type apiPostResponse struct {
	Data struct {
		ID     string `json:"id"`
		WebURL string `json:"web_url"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Publish creates the post. A plan-gated refusal surfaces as ErrPlanGate.
func (t *APITransport) Publish(ctx context.Context, post *Post) (*Result, error) {
	status := "draft"
	if post.Publish {
		status = "confirmed"
	}

	body, err := json.Marshal(apiPostRequest{
		Title:             post.Title,
		Subtitle:          post.Subtitle,
		Slug:              post.Slug,
		PreviewText:       post.PreviewText,
		ContentTags:       post.Tags,
		Status:            status,
		FreeWebContent:    post.FreeHTML,
		PremiumWebContent: post.PremiumHTML,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	url := fmt.Sprintf("%s/v2/publications/%s/posts",
		strings.TrimSuffix(t.cfg.APIBaseURL, "/"), t.cfg.PublicationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to platform API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading platform API response: %w", err)
	}

	var decoded apiPostResponse
	// Tolerate non-JSON error bodies; the status code still classifies them.
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode == http.StatusForbidden || hasErrorCode(decoded, planGateCode) {
		return nil, fmt.Errorf("%w (HTTP %d)", ErrPlanGate, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("platform API returned HTTP %d: %s", resp.StatusCode, firstErrorMessage(decoded, raw))
	}

	return &Result{PostID: decoded.Data.ID, URL: decoded.Data.WebURL}, nil
}

func hasErrorCode(resp apiPostResponse, code string) bool {
	for _, e := range resp.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func firstErrorMessage(resp apiPostResponse, raw []byte) string {
	if len(resp.Errors) > 0 {
		return resp.Errors[0].Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
