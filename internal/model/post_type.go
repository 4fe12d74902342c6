package model

import (
	"fmt"
	"strings"
	"time"
)

// PostType identifies the day's edition variant. Fixed once per run; no
// stage may change it.
type PostType string

const (
	PostMondayDeepDive PostType = "monday_deep_dive"
	PostAfricaRegional PostType = "africa_regional"
	PostAggregator     PostType = "aggregator"
	PostAfricaPremium  PostType = "africa_premium"
	PostTraderIntel    PostType = "trader_intel"
	PostAnalysis       PostType = "analysis"
	PostWeekReview     PostType = "week_review"
)

// Seven-day editorial calendar, Monday first.
var dayTypes = map[time.Weekday]PostType{
	time.Monday:    PostMondayDeepDive,
	time.Tuesday:   PostAfricaRegional,
	time.Wednesday: PostAggregator,
	time.Thursday:  PostAfricaPremium,
	time.Friday:    PostTraderIntel,
	time.Saturday:  PostAnalysis,
	time.Sunday:    PostWeekReview,
}

var postTypeLabels = map[PostType]string{
	PostMondayDeepDive: "Monday Deep Dive",
	PostAfricaRegional: "Africa Regional Briefing",
	PostAggregator:     "Market Aggregator",
	PostAfricaPremium:  "Africa Premium Edition",
	PostTraderIntel:    "Trader Intelligence",
	PostAnalysis:       "Market Analysis",
	PostWeekReview:     "Week in Review",
}

// AllPostTypes returns every valid post type in calendar order.
func AllPostTypes() []PostType {
	return []PostType{
		PostMondayDeepDive, PostAfricaRegional, PostAggregator,
		PostAfricaPremium, PostTraderIntel, PostAnalysis, PostWeekReview,
	}
}

// ParsePostType converts a CLI-supplied name into a PostType.
func ParsePostType(s string) (PostType, error) {
	candidate := PostType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := postTypeLabels[candidate]; ok {
		return candidate, nil
	}
	names := make([]string, 0, len(postTypeLabels))
	for _, pt := range AllPostTypes() {
		names = append(names, string(pt))
	}
	return "", fmt.Errorf("unknown post type %q (valid: %s)", s, strings.Join(names, ", "))
}

// PostTypeForDate resolves the scheduled edition for a calendar date.
func PostTypeForDate(date time.Time) PostType {
	return dayTypes[date.Weekday()]
}

// Label returns the human-facing edition name used in titles and emails.
func (p PostType) Label() string {
	if label, ok := postTypeLabels[p]; ok {
		return label
	}
	return "Daily Briefing"
}

// Valid reports whether p is one of the seven calendar editions.
func (p PostType) Valid() bool {
	_, ok := postTypeLabels[p]
	return ok
}
