package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Settings.Parallel)
	require.Equal(t, "https://query1.finance.yahoo.com", cfg.Feeds.ChartBaseURL)
	require.Len(t, cfg.Feeds.News, 6)
	require.Equal(t, 6, cfg.Feeds.MaxHeadlines)
	require.False(t, cfg.Beehiiv.APITierSupported)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "briefing.yaml")
	body := `
settings:
  parallel: 2
  data_timeout: 5
feeds:
  max_headlines: 3
beehiiv:
  publication_id: pub_test
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Settings.Parallel)
	require.Equal(t, 5, cfg.Settings.DataTimeout)
	require.Equal(t, 3, cfg.Feeds.MaxHeadlines)
	require.Equal(t, "pub_test", cfg.Beehiiv.PublicationID)
	// Untouched defaults survive the overlay.
	require.Equal(t, "https://api.beehiiv.com", cfg.Beehiiv.APIBaseURL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "briefing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings: [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var parseErr *briefingerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestValidateRejectsDuplicateFeeds(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feeds.News = append(cfg.Feeds.News, cfg.Feeds.News[0])

	err := Validate(cfg)
	require.Error(t, err)
	var valErr *briefingerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestValidateRejectsAPITierWithoutKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Beehiiv.APITierSupported = true
	cfg.Beehiiv.APIKey = ""

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "BEEHIIV_API_KEY")
}

func TestValidateRejectsBadOperatorAddress(t *testing.T) {
	cfg := defaultConfig()
	cfg.Notify.Operator = "not-an-address"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestEnvOverridesSecretsAndOperator(t *testing.T) {
	t.Setenv("BEEHIIV_API_KEY", "key-123")
	t.Setenv("NOTIFY_EMAIL", "ops@example.com")
	t.Setenv("NOTIFY_PASSWORD", "app-password")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "key-123", cfg.Beehiiv.APIKey)
	require.Equal(t, "ops@example.com", cfg.Notify.Operator)
	require.Equal(t, "app-password", cfg.Notify.Password)
}
