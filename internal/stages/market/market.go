package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/retry"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the market intelligence stage in the run context.
const StageName = "market_intelligence"

// Gold price sanity band. Values outside it mean stale or corrupted feed
// data; the run must not publish numbers from it.
const (
	priceFloor   = 800.0
	priceCeiling = 15000.0
	// Daily swings above this are flagged for operator review.
	swingWarnPct = 10.0
)

// Karat purity fractions for the per-gram pricing table.
var karats = map[string]float64{
	"24K": 1.0, "22K": 22.0 / 24, "18K": 18.0 / 24, "14K": 14.0 / 24, "9K": 9.0 / 24,
}

const troyOzToGram = 31.1035

// Data is the market stage payload consumed by synthesis and the
// post-processing stages.
type Data struct {
	Gold        *feeds.Quote
	Silver      *feeds.Quote
	DXY         *feeds.Quote
	SP500       *feeds.Quote
	BTC         *feeds.Quote
	FXRates     map[string]float64
	KaratPrices map[string]map[string]float64
	News        []feeds.Headline
	Warnings    []string
}

// Stage fetches prices, FX rates, and headlines. The gold quote is the one
// input the rest of the pipeline cannot live without; everything else
// degrades to warnings.
type Stage struct {
	feeds   config.FeedsConfig
	quotes  *feeds.QuoteClient
	news    *feeds.NewsClient
	policy  retry.Policy
	timeout time.Duration
}

// New creates the market stage.
func New(cfg config.FeedsConfig, quotes *feeds.QuoteClient, news *feeds.NewsClient, policy retry.Policy, timeout time.Duration) *Stage {
	return &Stage{feeds: cfg, quotes: quotes, news: news, policy: policy, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return nil }
func (s *Stage) Uses() []string         { return nil }
func (s *Stage) Timeout() time.Duration { return s.timeout }

// Run fetches everything. Only an unavailable or insane gold quote fails
// the stage; all other losses are recorded as warnings in the payload.
func (s *Stage) Run(ctx context.Context, _ model.Results) (any, error) {
	gold, err := s.fetchWithRetry(ctx, feeds.TickerGold)
	if err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDataUnavailable,
			fmt.Errorf("gold quote unavailable after retries: %w", err))
	}

	if gold.Price < priceFloor || gold.Price > priceCeiling {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDataUnavailable,
			fmt.Errorf("gold price $%.2f outside expected range ($%.0f-$%.0f), possible stale or corrupted data",
				gold.Price, priceFloor, priceCeiling))
	}

	data := &Data{Gold: gold}

	if pct := gold.DayChangePct; pct > swingWarnPct || pct < -swingWarnPct {
		data.Warnings = append(data.Warnings, fmt.Sprintf(
			"WARNING: Daily gold move of %.1f%% is unusually large (>%.0f%%). Verify market conditions before publishing.",
			pct, swingWarnPct))
	}

	// Secondary quotes are best-effort: a miss leaves the field nil.
	data.Silver = s.optionalQuote(ctx, feeds.TickerSilver)
	data.DXY = s.optionalQuote(ctx, feeds.TickerDXY)
	data.SP500 = s.optionalQuote(ctx, feeds.TickerSP500)
	data.BTC = s.optionalQuote(ctx, feeds.TickerBTC)

	rates, fxWarnings := feeds.FetchFXRates(ctx, s.quotes)
	data.FXRates = rates
	data.Warnings = append(data.Warnings, fxWarnings...)
	data.KaratPrices = karatPrices(gold.Price, rates)

	data.News = s.news.Fetch(ctx, s.feeds.News, feeds.GoldKeywords, s.feeds.MaxHeadlines)
	if len(data.News) == 0 {
		data.Warnings = append(data.Warnings,
			"WARNING: No news headlines fetched. RSS feeds may be temporarily down.")
	}

	return data, nil
}

func (s *Stage) fetchWithRetry(ctx context.Context, symbol string) (*feeds.Quote, error) {
	var quote *feeds.Quote
	err := s.policy.Do(ctx, func() error {
		q, err := s.quotes.Quote(ctx, symbol)
		if err != nil {
			var httpErr *feeds.HTTPError
			if errors.As(err, &httpErr) && !httpErr.Transient() {
				return retry.Permanent(err)
			}
			return err
		}
		quote = q
		return nil
	})
	return quote, err
}

func (s *Stage) optionalQuote(ctx context.Context, symbol string) *feeds.Quote {
	quote, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		return nil
	}
	return quote
}

// karatPrices returns price-per-gram by currency and karat at the current
// spot price.
func karatPrices(goldUSD float64, rates map[string]float64) map[string]map[string]float64 {
	perGramUSD := goldUSD / troyOzToGram
	out := make(map[string]map[string]float64, len(rates))
	for currency, rate := range rates {
		if rate == 0 {
			continue
		}
		perGramLocal := perGramUSD * rate
		table := make(map[string]float64, len(karats))
		for karat, fraction := range karats {
			table[karat] = perGramLocal * fraction
		}
		out[currency] = table
	}
	return out
}
