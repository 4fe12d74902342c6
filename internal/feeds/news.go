package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
)

// GoldKeywords filter headlines down to market-relevant items.
var GoldKeywords = []string{
	"gold", "xau", "bullion", "precious metal", "silver", "platinum",
	"fed rate", "federal reserve", "inflation", "dollar index", "safe haven",
	"treasury yield", "bond yield", "real yield", "commodity",
	"rate cut", "rate hike", "fomc", "powell", "central bank",
}

// Headline is one ordered news record from an RSS source.
type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// NewsClient fetches and filters RSS headlines.
type NewsClient struct {
	parser *gofeed.Parser
	log    *logger.Logger
}

// NewNewsClient creates a news client.
func NewNewsClient(log *logger.Logger) *NewsClient {
	return &NewsClient{parser: gofeed.NewParser(), log: log}
}

// Fetch walks the sources in configured order, keeps keyword-matching
// items, and stops once max headlines are collected. Dead feeds are skipped;
// a completely empty result is the caller's signal that feeds are down.
func (c *NewsClient) Fetch(ctx context.Context, sources []config.FeedSource, keywords []string, max int) []Headline {
	var headlines []Headline

	for _, source := range sources {
		if len(headlines) >= max {
			break
		}

		feedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		feed, err := c.parser.ParseURLWithContext(source.URL, feedCtx)
		cancel()
		if err != nil {
			c.log.WithFields(map[string]any{"feed": source.Name}).Warn("feed unavailable, skipping")
			continue
		}

		for _, item := range feed.Items {
			if len(headlines) >= max {
				break
			}
			if len(keywords) > 0 && !matchesAny(item.Title, keywords) {
				continue
			}

			published := time.Time{}
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}
			headlines = append(headlines, Headline{
				Title:     strings.TrimSpace(item.Title),
				Link:      item.Link,
				Source:    source.Name,
				Published: published,
			})
		}
	}

	return headlines
}

func matchesAny(title string, keywords []string) bool {
	lowered := strings.ToLower(title)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
