package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>
<item><title>Gold holds near record as Fed rate bets firm</title><link>https://example.com/1</link><pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate></item>
<item><title>Soybean futures slip on harvest outlook</title><link>https://example.com/2</link><pubDate>Mon, 24 Aug 2026 08:00:00 GMT</pubDate></item>
<item><title>Bullion demand from central banks climbs</title><link>https://example.com/3</link><pubDate>Mon, 24 Aug 2026 07:00:00 GMT</pubDate></item>
</channel></rss>`

func newsLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func TestFetchFiltersOnKeywordsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	client := NewNewsClient(newsLogger(t))
	headlines := client.Fetch(context.Background(),
		[]config.FeedSource{{Name: "Test", URL: srv.URL}}, GoldKeywords, 6)

	require.Len(t, headlines, 2)
	require.Equal(t, "Gold holds near record as Fed rate bets firm", headlines[0].Title)
	require.Equal(t, "Bullion demand from central banks climbs", headlines[1].Title)
	require.Equal(t, "Test", headlines[0].Source)
	require.False(t, headlines[0].Published.IsZero())
}

func TestFetchStopsAtMaxItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	client := NewNewsClient(newsLogger(t))
	headlines := client.Fetch(context.Background(),
		[]config.FeedSource{{Name: "A", URL: srv.URL}, {Name: "B", URL: srv.URL}}, GoldKeywords, 3)

	require.Len(t, headlines, 3)
}

func TestFetchSkipsDeadFeeds(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer dead.Close()
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer live.Close()

	client := NewNewsClient(newsLogger(t))
	headlines := client.Fetch(context.Background(),
		[]config.FeedSource{{Name: "Dead", URL: dead.URL}, {Name: "Live", URL: live.URL}}, GoldKeywords, 6)

	require.Len(t, headlines, 2)
	require.Equal(t, "Live", headlines[0].Source)
}
