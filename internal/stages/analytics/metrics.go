package analytics

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/monetization"
	"github.com/africagold/briefing/internal/stages/partnership"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/social"
)

const (
	weekWindow  = 7 * 24 * time.Hour
	sparkWindow = 14 * 24 * time.Hour
	// Daily logs stay small; this bounds the scan on very old installs.
	logScanLimit = 512
)

// PipelineMetrics summarizes run-log health over the window.
type PipelineMetrics struct {
	Total       int
	Delivered   int // SUCCESS and DEGRADED runs
	Failed      int
	DryRuns     int
	SuccessRate int // percent of delivered runs
	AvgElapsedS float64
	PostTypes   map[model.PostType]int
	AvgPrice    float64
	PriceLow    float64
	PriceHigh   float64
	AvgDayPct   float64
	Streak      int // consecutive runs without failure, newest backwards
}

// TagCount is one tag with its frequency over the window.
type TagCount struct {
	Tag   string
	Count int
}

// SEOMetrics summarizes the seo aux log.
type SEOMetrics struct {
	Total       int
	AvgTags     float64
	UniqueSlugs int
	TopTags     []TagCount
}

// SocialMetrics summarizes the social aux log.
type SocialMetrics struct {
	Total         int
	AvgTweetChars int
}

// OutreachMetrics summarizes the partnership aux log.
type OutreachMetrics struct {
	Runs       int
	Drafts     int
	UniqueOrgs int
}

// MonetizationMetrics summarizes the monetization aux log.
type MonetizationMetrics struct {
	Total      int
	AvgScore   int
	PeakScore  int
	Strategies map[string]int
}

// readRuns returns run-log entries no older than since, newest first.
// Read failures degrade to an empty window: analytics never fails a run.
func readRuns(store *runlog.Store, since time.Time) []model.RunLogEntry {
	entries, err := store.TailRuns(logScanLimit)
	if err != nil {
		return nil
	}
	out := entries[:0]
	for _, entry := range entries {
		if !entry.Timestamp.Before(since) {
			out = append(out, entry)
		}
	}
	return out
}

// readLog decodes aux records no older than since, oldest first. Foreign
// lines are skipped; the logs are append-only and long-lived.
func readLog[T any](store *runlog.Store, since time.Time, recordDate func(T) time.Time) []T {
	raw, err := store.Tail(logScanLimit)
	if err != nil {
		return nil
	}
	var out []T
	// Tail is newest-first; reverse into chronological order.
	for i := len(raw) - 1; i >= 0; i-- {
		var rec T
		if err := json.Unmarshal(raw[i], &rec); err != nil {
			continue
		}
		if recordDate(rec).Before(since) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func pipelineMetrics(entries []model.RunLogEntry) PipelineMetrics {
	m := PipelineMetrics{Total: len(entries), PostTypes: map[model.PostType]int{}}
	if len(entries) == 0 {
		return m
	}

	var elapsed, pctSum float64
	priced := 0
	for _, entry := range entries {
		switch entry.Status {
		case model.RunStatusSuccess, model.RunStatusDegraded:
			m.Delivered++
			m.PostTypes[entry.PostType]++
			elapsed += entry.ElapsedS
		case model.RunStatusFailed:
			m.Failed++
		case model.RunStatusDryRun:
			m.DryRuns++
		}
		if entry.GoldPrice > 0 {
			priced++
			m.AvgPrice += entry.GoldPrice
			pctSum += entry.DayChangePct
			if m.PriceLow == 0 || entry.GoldPrice < m.PriceLow {
				m.PriceLow = entry.GoldPrice
			}
			if entry.GoldPrice > m.PriceHigh {
				m.PriceHigh = entry.GoldPrice
			}
		}
	}

	m.SuccessRate = m.Delivered * 100 / m.Total
	if m.Delivered > 0 {
		m.AvgElapsedS = elapsed / float64(m.Delivered)
	}
	if priced > 0 {
		m.AvgPrice /= float64(priced)
		m.AvgDayPct = pctSum / float64(priced)
	}

	// Entries are newest-first.
	for _, entry := range entries {
		if entry.Status == model.RunStatusFailed {
			break
		}
		m.Streak++
	}
	return m
}

func seoMetrics(recs []seo.Record) SEOMetrics {
	m := SEOMetrics{Total: len(recs)}
	if len(recs) == 0 {
		return m
	}

	counts := map[string]int{}
	slugs := map[string]bool{}
	tagTotal := 0
	for _, rec := range recs {
		slugs[rec.Slug] = true
		for _, tag := range rec.Tags {
			counts[tag]++
			tagTotal++
		}
	}
	m.AvgTags = float64(tagTotal) / float64(len(recs))
	m.UniqueSlugs = len(slugs)
	m.TopTags = topTags(counts, 8)
	return m
}

func topTags(counts map[string]int, limit int) []TagCount {
	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func socialMetrics(recs []social.Record) SocialMetrics {
	m := SocialMetrics{Total: len(recs)}
	if len(recs) == 0 {
		return m
	}
	chars := 0
	for _, rec := range recs {
		chars += len([]rune(rec.Twitter))
	}
	m.AvgTweetChars = chars / len(recs)
	return m
}

func outreachMetrics(recs []partnership.Record) OutreachMetrics {
	m := OutreachMetrics{Runs: len(recs)}
	orgs := map[string]bool{}
	for _, rec := range recs {
		m.Drafts += len(rec.Drafts)
		for _, draft := range rec.Drafts {
			orgs[draft.To] = true
		}
	}
	m.UniqueOrgs = len(orgs)
	return m
}

func monetizationMetrics(recs []monetization.Record) MonetizationMetrics {
	m := MonetizationMetrics{Total: len(recs), Strategies: map[string]int{}}
	if len(recs) == 0 {
		return m
	}
	sum := 0
	for _, rec := range recs {
		sum += rec.Score
		if rec.Score > m.PeakScore {
			m.PeakScore = rec.Score
		}
		m.Strategies[rec.Strategy]++
	}
	m.AvgScore = sum / len(recs)
	return m
}

// goldPrices extracts run-log gold prices oldest first, for sparklines.
func goldPrices(entries []model.RunLogEntry) []float64 {
	var out []float64
	for i := len(entries) - 1; i >= 0; i-- {
		if price := entries[i].GoldPrice; price > 0 {
			out = append(out, price)
		}
	}
	return out
}

func scores(recs []monetization.Record) []float64 {
	out := make([]float64, 0, len(recs))
	for _, rec := range recs {
		out = append(out, float64(rec.Score))
	}
	return out
}

const sparkWidth = 14

var sparkBars = []rune(" ▁▂▃▄▅▆▇█")

// sparkline renders values as an email-safe block-character strip, newest
// values rightmost.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return strings.Repeat("─", sparkWidth)
	}
	if len(values) > sparkWidth {
		values = values[len(values)-sparkWidth:]
	}

	low, high := values[0], values[0]
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	if low == high {
		return strings.Repeat("▄", len(values))
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - low) / (high - low) * float64(len(sparkBars)-1))
		b.WriteRune(sparkBars[idx])
	}
	return b.String()
}
