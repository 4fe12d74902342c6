package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Tickers tracked by the market stage.
const (
	TickerGold   = "GC=F"
	TickerSilver = "SI=F"
	TickerDXY    = "DX-Y.NYB"
	TickerSP500  = "^GSPC"
	TickerBTC    = "BTC-USD"
)

// Quote is the bit-exact price contract: last price plus prior close, or a
// typed error when the source cannot provide one.
type Quote struct {
	Symbol       string
	Price        float64
	PrevClose    float64
	DayChangePct float64
	RSI          *float64
}

// HTTPError reports a non-200 response from the chart API.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Transient reports whether the failure is worth retrying. Auth and
// client-side errors are not; throttling and server errors are.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// QuoteClient fetches daily-bar quotes from a Yahoo-style chart API.
type QuoteClient struct {
	baseURL string
	client  *http.Client
}

// NewQuoteClient creates a client for the given chart API base URL.
func NewQuoteClient(baseURL string) *QuoteClient {
	return &QuoteClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the latest daily bar for symbol along with enough history
// to compute RSI-14.
func (c *QuoteClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=30d&interval=1d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "briefing/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding chart response for %s: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	meta := result.Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("chart API returned empty price for %s", symbol)
	}

	q := &Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.ChartPreviousClose,
	}
	if q.PrevClose != 0 {
		q.DayChangePct = (q.Price - q.PrevClose) / q.PrevClose * 100
	}

	if len(result.Indicators.Quote) > 0 {
		closes := make([]float64, 0, len(result.Indicators.Quote[0].Close))
		for _, c := range result.Indicators.Quote[0].Close {
			if c != nil {
				closes = append(closes, *c)
			}
		}
		if rsi := calcRSI(closes, 14); rsi != nil {
			q.RSI = rsi
		}
	}

	return q, nil
}

// calcRSI computes a simple-average RSI over the trailing period. Returns
// nil when history is too short.
func calcRSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	var gains, losses float64
	start := len(closes) - period - 1
	for i := start + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	if losses == 0 {
		v := 100.0
		return &v
	}

	rs := (gains / float64(period)) / (losses / float64(period))
	v := 100 - 100/(1+rs)
	return &v
}
