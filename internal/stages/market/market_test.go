package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/retry"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func chartJSON(price, prev float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%f,"chartPreviousClose":%f}}],"error":null}}`, price, prev)
}

func newStage(t *testing.T, chartURL string) *Stage {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	cfg := config.FeedsConfig{MaxHeadlines: 6}
	return New(cfg, feeds.NewQuoteClient(chartURL), feeds.NewNewsClient(log), fastPolicy(), 0)
}

func TestRunProducesMarketData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "GC=F"):
			fmt.Fprint(w, chartJSON(2400, 2380))
		case strings.Contains(r.URL.Path, "USD"):
			fmt.Fprint(w, chartJSON(18.2, 18.1))
		default:
			fmt.Fprint(w, chartJSON(100, 99))
		}
	}))
	defer srv.Close()

	payload, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.NoError(t, err)

	data, ok := payload.(*Data)
	require.True(t, ok)
	require.Equal(t, 2400.0, data.Gold.Price)
	require.NotNil(t, data.Silver)
	require.Len(t, data.FXRates, len(feeds.FXPairs))
	require.Contains(t, data.KaratPrices, "ZAR")
	require.InDelta(t, 2400/31.1035*18.2, data.KaratPrices["ZAR"]["24K"], 0.01)
	// No news feeds configured: warning recorded, stage still succeeds.
	require.NotEmpty(t, data.Warnings)
}

func TestRunRetriesTransientGoldFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GC=F") && calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chartJSON(2400, 2380))
	}))
	defer srv.Close()

	_, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestRunFailsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GC=F") {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chartJSON(100, 99))
	}))
	defer srv.Close()

	_, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, briefingerrors.CategoryDataUnavailable, briefingerrors.CategoryOf(err))
	require.Equal(t, int32(3), calls.Load())
}

func TestRunDoesNotRetryAuthFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GC=F") {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, chartJSON(100, 99))
	}))
	defer srv.Close()

	_, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestRunRejectsPriceOutsideSanityBand(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(150, 148))
	}))
	defer srv.Close()

	_, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, briefingerrors.CategoryDataUnavailable, briefingerrors.CategoryOf(err))
	require.Contains(t, err.Error(), "outside expected range")
}

func TestRunWarnsOnLargeSwing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GC=F") {
			fmt.Fprint(w, chartJSON(2400, 2000))
			return
		}
		fmt.Fprint(w, chartJSON(100, 99))
	}))
	defer srv.Close()

	payload, err := newStage(t, srv.URL).Run(context.Background(), nil)
	require.NoError(t, err)
	data := payload.(*Data)

	var found bool
	for _, warning := range data.Warnings {
		if strings.Contains(warning, "unusually large") {
			found = true
		}
	}
	require.True(t, found, "expected swing warning, got %v", data.Warnings)
}
