package config

// Default wiring mirrors the production deployment so the binary runs with
// no configuration file present. Anything here can be overridden in
// briefing.yaml.
func defaultConfig() *Config {
	return &Config{
		Settings: Settings{
			DataDir:             "data",
			LogDir:              "logs",
			PreviewDir:          "previews",
			Parallel:            4,
			DataTimeout:         30,
			DistributionTimeout: 120,
			PostProcessTimeout:  15,
		},
		Feeds: FeedsConfig{
			ChartBaseURL: "https://query1.finance.yahoo.com",
			MaxHeadlines: 6,
			News: []FeedSource{
				{Name: "Kitco", URL: "https://www.kitco.com/rss/feed/news.xml"},
				{Name: "Investing.com", URL: "https://www.investing.com/rss/news_25.rss"},
				{Name: "FX Street", URL: "https://www.fxstreet.com/rss/news"},
				{Name: "Nasdaq", URL: "https://www.nasdaq.com/feed/rssoutbound?category=Commodities"},
				{Name: "BullionVault", URL: "https://www.bullionvault.com/gold-news/rss.do"},
				{Name: "MarketWatch", URL: "https://feeds.marketwatch.com/marketwatch/marketpulse/"},
			},
			AfricaNews: []FeedSource{
				{Name: "Mining Weekly", URL: "https://www.miningweekly.com/rss/topic/gold"},
				{Name: "African Business", URL: "https://african.business/feed"},
			},
		},
		Beehiiv: BeehiivConfig{
			APIBaseURL:    "https://api.beehiiv.com",
			AppBaseURL:    "https://app.beehiiv.com",
			PublicationID: "pub_5927fa56-6b7c-4310-8f35-2ff9d18f523b",
			SessionFile:   "data/.beehiiv_session.json",
		},
		Notify: NotifyConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 465,
		},
		Contracts: ContractsConfig{
			Branch: "main",
			Dir:    "data/contracts",
		},
	}
}
