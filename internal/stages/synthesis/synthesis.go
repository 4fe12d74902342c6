package synthesis

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/stages/africa"
	"github.com/africagold/briefing/internal/stages/contracts"
	"github.com/africagold/briefing/internal/stages/market"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the content synthesis stage in the run context.
const StageName = "content_synthesis"

//go:embed templates/*.tmpl.html
var templateFS embed.FS

var templates = template.Must(template.New("edition").Funcs(template.FuncMap{
	"usd":   func(v float64) string { return "$" + commaFloat(v, 2) },
	"usd0":  func(v float64) string { return "$" + commaFloat(v, 0) },
	"pct":   func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
	"pct1":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"num":   func(v float64) string { return commaFloat(v, 0) },
	"local": func(sym string, v float64) string { return sym + commaFloat(v, 2) },
	"mn":    func(v float64) string { return "$" + commaFloat(v/1e6, 1) + "m" },
	"bn":    func(v float64) string { return "$" + commaFloat(v, 1) + "bn" },
	"rsi": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%.1f", *p)
	},
}).ParseFS(templateFS, "templates/*.tmpl.html"))

// Output is the synthesis payload: the rendered edition plus the list of
// sections that were dropped because an upstream dataset was missing.
type Output struct {
	Edition  *model.RenderedEdition
	Degraded []string
}

// sections selects which premium blocks the day's edition carries.
type sections struct {
	Miners    bool
	Karat     bool
	Contracts bool
	Trader    bool
	Macro     bool
	Seasonal  bool
	Headlines bool
}

var sectionPlan = map[model.PostType]sections{
	model.PostMondayDeepDive: {Miners: true, Karat: true, Contracts: true, Trader: true, Macro: true, Seasonal: true, Headlines: true},
	model.PostAfricaRegional: {Miners: true, Karat: true, Seasonal: true, Headlines: true},
	model.PostAggregator:     {Macro: true, Headlines: true},
	model.PostAfricaPremium:  {Miners: true, Karat: true, Contracts: true, Seasonal: true},
	model.PostTraderIntel:    {Trader: true, Macro: true, Headlines: true},
	model.PostAnalysis:       {Macro: true, Headlines: true},
	model.PostWeekReview:     {Miners: true, Karat: true, Contracts: true, Trader: true, Macro: true, Seasonal: true, Headlines: true},
}

// karatTable is one currency's price-per-gram column, karats heaviest first.
type karatTable struct {
	Currency string
	Symbol   string
	Rows     []karatRow
}

type karatRow struct {
	Karat string
	Price float64
}

var karatOrder = []string{"24K", "22K", "18K", "14K", "9K"}

type editionView struct {
	Title    string
	Label    string
	DateLong string
	Premium  bool
	Sections sections

	Gold   *feeds.Quote
	Silver *feeds.Quote
	DXY    *feeds.Quote
	SP500  *feeds.Quote
	BTC    *feeds.Quote

	Support    float64
	Resistance float64
	Bias       string

	Karat      []karatTable
	Headlines  []feeds.Headline
	AfricaNews []feeds.Headline

	Miners     []MinerRow
	PanAfrican float64
	Seasonal   []africa.Signal

	Royalty       []RoyaltyRow
	RoyaltyPaid   float64
	RoyaltyGapUSD float64
	ShadowBn      float64
	Alerts        []contracts.Contract

	Degraded []string
}

// Stage turns the morning's datasets into the free and premium documents.
// It needs the market payload; the Africa and contracts payloads enrich the
// edition but their absence only degrades it.
type Stage struct {
	postType model.PostType
	date     time.Time
	timeout  time.Duration
}

// New creates the synthesis stage for the run's edition.
func New(postType model.PostType, date time.Time, timeout time.Duration) *Stage {
	return &Stage{postType: postType, date: date, timeout: timeout}
}

func (s *Stage) Name() string       { return StageName }
func (s *Stage) Requires() []string { return nil }
func (s *Stage) Uses() []string {
	return []string{market.StageName, africa.StageName, contracts.StageName}
}
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(_ context.Context, results model.Results) (any, error) {
	raw, ok := results.Payload(market.StageName)
	if !ok {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryInsufficientContent,
			errors.New("market intelligence unavailable, nothing to write"))
	}
	mkt, ok := raw.(*market.Data)
	if !ok || mkt.Gold == nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryInsufficientContent,
			errors.New("market payload carries no gold quote"))
	}

	view := s.buildView(mkt, results)

	free, err := s.renderDocument("free", view, false)
	if err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryInternal, err)
	}
	premium, err := s.renderDocument("premium", view, true)
	if err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryInternal, err)
	}

	edition := &model.RenderedEdition{
		Free:        free,
		Premium:     premium,
		Title:       view.Title,
		Subtitle:    view.Label,
		PreviewText: previewText(mkt),
	}
	return &Output{Edition: edition, Degraded: view.Degraded}, nil
}

func (s *Stage) buildView(mkt *market.Data, results model.Results) *editionView {
	view := &editionView{
		Title:    fmt.Sprintf("Gold Market Briefing | %s", s.date.Format("Jan 2, 2006")),
		Label:    s.postType.Label(),
		DateLong: s.date.Format("Monday, January 2, 2006"),
		Sections: sectionPlan[s.postType],
		Gold:     mkt.Gold,
		Silver:   mkt.Silver,
		DXY:      mkt.DXY,
		SP500:    mkt.SP500,
		BTC:      mkt.BTC,
		Bias:     Bias(mkt.Gold.RSI, mkt.Gold.DayChangePct),
	}
	view.Support, view.Resistance = SupportResistance(mkt.Gold.Price)
	view.Karat = karatTables(mkt.KaratPrices)
	view.Headlines = mkt.News

	if raw, ok := results.Payload(africa.StageName); ok {
		data := raw.(*africa.Data)
		view.Miners = MinerDashboard(data.Miners, mkt.Gold.Price)
		view.PanAfrican = PanAfricanMargin(data.Miners, mkt.Gold.Price)
		view.Seasonal = data.Seasonal
		view.AfricaNews = data.News
	} else if view.Sections.Miners || view.Sections.Seasonal {
		view.Degraded = append(view.Degraded, "Africa producer coverage unavailable for this edition.")
	}

	if raw, ok := results.Payload(contracts.StageName); ok {
		data := raw.(*contracts.Data)
		view.Royalty, view.RoyaltyPaid, view.RoyaltyGapUSD = RoyaltyGap(data.Contracts, mkt.Gold.Price)
		view.ShadowBn = ShadowValueUSDBn(data.Shadow, mkt.Gold.Price)
		view.Alerts = data.Alerts()
	} else if view.Sections.Contracts {
		view.Degraded = append(view.Degraded, "Contract transparency coverage unavailable for this edition.")
	}

	return view
}

func (s *Stage) renderDocument(name string, view *editionView, premium bool) (model.Document, error) {
	clone := *view
	clone.Premium = premium

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, &clone); err != nil {
		return model.Document{}, fmt.Errorf("render %s edition: %w", name, err)
	}
	html := buf.String()

	plaintext, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		// The HTML is still publishable; the text alternative just degrades.
		plaintext = ""
	}

	doc := model.Document{
		HTML:      html,
		Plaintext: plaintext,
		Subject:   view.Title,
		Slug:      s.slug(premium),
	}
	if premium {
		doc.Subject = view.Title + " — Premium"
	}
	return doc, nil
}

func (s *Stage) slug(premium bool) string {
	slug := fmt.Sprintf("%s-%s", strings.ReplaceAll(string(s.postType), "_", "-"), s.date.Format("2006-01-02"))
	if premium {
		slug += "-premium"
	}
	return slug
}

func previewText(mkt *market.Data) string {
	if len(mkt.News) > 0 {
		return mkt.News[0].Title
	}
	return fmt.Sprintf("Gold at $%.2f — today's Africa gold intelligence.", mkt.Gold.Price)
}

func karatTables(prices map[string]map[string]float64) []karatTable {
	currencies := make([]string, 0, len(prices))
	for currency := range prices {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	tables := make([]karatTable, 0, len(currencies))
	for _, currency := range currencies {
		table := karatTable{Currency: currency, Symbol: feeds.CurrencySymbols[currency]}
		for _, karat := range karatOrder {
			if price, ok := prices[currency][karat]; ok {
				table.Rows = append(table.Rows, karatRow{Karat: karat, Price: price})
			}
		}
		tables = append(tables, table)
	}
	return tables
}

// commaFloat formats v with thousands separators and the given precision.
func commaFloat(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
