package africa

import (
	"context"
	"time"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/model"
)

// StageName identifies the Africa intelligence stage in the run context.
const StageName = "africa_intelligence"

// Miner is one tracked African gold producer. AISC and production figures
// are refreshed manually from quarterly reports.
type Miner struct {
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	Ticker        string  `json:"ticker"`
	AISCUSD       float64 `json:"aisc_usd"`
	ProductionKoz float64 `json:"production_koz"`
}

// Signal is a seasonal demand or supply pattern active for the month.
type Signal struct {
	Signal string       `json:"signal"`
	Months []time.Month `json:"-"`
}

// Data is the Africa stage payload. Margin math happens in synthesis where
// the live gold price is in scope; this stage only supplies the datasets.
type Data struct {
	Miners   []Miner
	Seasonal []Signal
	News     []feeds.Headline
}

// Tracked producers, heaviest pan-African weights first.
var miners = []Miner{
	{Name: "Gold Fields", Country: "South Africa", Ticker: "GFI", AISCUSD: 1295, ProductionKoz: 2300},
	{Name: "AngloGold Ashanti", Country: "South Africa", Ticker: "AU", AISCUSD: 1388, ProductionKoz: 2600},
	{Name: "Harmony Gold", Country: "South Africa", Ticker: "HMY", AISCUSD: 1456, ProductionKoz: 1500},
	{Name: "Endeavour Mining", Country: "Senegal", Ticker: "EDV", AISCUSD: 1218, ProductionKoz: 1100},
	{Name: "Perseus Mining", Country: "Ghana", Ticker: "PRU", AISCUSD: 1053, ProductionKoz: 510},
	{Name: "Centamin", Country: "Egypt", Ticker: "CEY", AISCUSD: 1205, ProductionKoz: 450},
	{Name: "Resolute Mining", Country: "Mali", Ticker: "RSG", AISCUSD: 1470, ProductionKoz: 340},
}

var seasonalSignals = []Signal{
	{Signal: "Ramadan and Eid jewellery demand lifts Gulf re-export flows", Months: []time.Month{time.February, time.March, time.April}},
	{Signal: "West African rainy season curbs artisanal supply", Months: []time.Month{time.June, time.July, time.August, time.September}},
	{Signal: "Indian wedding season pulls physical demand through Dubai", Months: []time.Month{time.October, time.November, time.December}},
	{Signal: "Year-end jewellery retail peak across Lagos and Accra", Months: []time.Month{time.December, time.January}},
}

// Stage supplies the miner dataset, active seasonal signals, and
// Africa-focused headlines.
type Stage struct {
	feeds   config.FeedsConfig
	news    *feeds.NewsClient
	date    time.Time
	timeout time.Duration
}

// New creates the Africa stage for the run date.
func New(cfg config.FeedsConfig, news *feeds.NewsClient, date time.Time, timeout time.Duration) *Stage {
	return &Stage{feeds: cfg, news: news, date: date, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return nil }
func (s *Stage) Uses() []string         { return nil }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(ctx context.Context, _ model.Results) (any, error) {
	data := &Data{
		Miners:   append([]Miner(nil), miners...),
		Seasonal: activeSignals(s.date.Month()),
	}
	data.News = s.news.Fetch(ctx, s.feeds.AfricaNews, nil, s.feeds.MaxHeadlines)
	return data, nil
}

func activeSignals(month time.Month) []Signal {
	var active []Signal
	for _, signal := range seasonalSignals {
		for _, m := range signal.Months {
			if m == month {
				active = append(active, signal)
				break
			}
		}
	}
	return active
}
