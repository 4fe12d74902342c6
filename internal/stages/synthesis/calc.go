package synthesis

import (
	"sort"

	"github.com/africagold/briefing/internal/stages/africa"
	"github.com/africagold/briefing/internal/stages/contracts"
)

const ouncesPerTonne = 32150.7

// MinerRow is one line of the miner margin dashboard, computed against the
// live spot price.
type MinerRow struct {
	africa.Miner
	MarginUSD float64
	MarginPct float64
}

// MinerDashboard derives per-miner AISC margins, sorted best margin first.
func MinerDashboard(miners []africa.Miner, goldPrice float64) []MinerRow {
	rows := make([]MinerRow, 0, len(miners))
	for _, miner := range miners {
		margin := goldPrice - miner.AISCUSD
		row := MinerRow{Miner: miner, MarginUSD: margin}
		if miner.AISCUSD > 0 {
			row.MarginPct = margin / miner.AISCUSD * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MarginUSD > rows[j].MarginUSD })
	return rows
}

// PanAfricanMargin is the production-weighted average margin across all
// tracked producers.
func PanAfricanMargin(miners []africa.Miner, goldPrice float64) float64 {
	var weighted, totalProduction float64
	for _, miner := range miners {
		weighted += (goldPrice - miner.AISCUSD) * miner.ProductionKoz
		totalProduction += miner.ProductionKoz
	}
	if totalProduction == 0 {
		return 0
	}
	return weighted / totalProduction
}

// RoyaltyRow is one line of the royalty-gap table at spot.
type RoyaltyRow struct {
	contracts.Contract
	AnnualValueUSD   float64
	RoyaltiesPaidUSD float64
	FairValueGapUSD  float64
}

// RoyaltyGap values every contract at the spot price and compares paid
// royalties to the benchmark rate.
func RoyaltyGap(list []contracts.Contract, goldPrice float64) (rows []RoyaltyRow, totalPaid, totalGap float64) {
	for _, contract := range list {
		value := contract.ProductionKoz * 1000 * goldPrice
		paid := value * contract.RoyaltyRatePct / 100
		fair := value * contracts.BenchmarkRoyaltyPct / 100
		gap := fair - paid
		if gap < 0 {
			gap = 0
		}
		rows = append(rows, RoyaltyRow{
			Contract:         contract,
			AnnualValueUSD:   value,
			RoyaltiesPaidUSD: paid,
			FairValueGapUSD:  gap,
		})
		totalPaid += paid
		totalGap += gap
	}
	return rows, totalPaid, totalGap
}

// ShadowValueUSDBn values the mid illicit-flow estimate at spot, in
// billions of dollars per year.
func ShadowValueUSDBn(shadow contracts.ShadowEstimate, goldPrice float64) float64 {
	return shadow.IllicitMidTonnes * ouncesPerTonne * goldPrice / 1e9
}

// SupportResistance rounds spot to the nearest $50 band either side.
func SupportResistance(goldPrice float64) (support, resistance float64) {
	support = float64(int(goldPrice/50)) * 50
	resistance = support + 50
	if support == goldPrice {
		support -= 50
	}
	return support, resistance
}

// Bias summarizes momentum from RSI and the daily move.
func Bias(rsi *float64, dayChangePct float64) string {
	switch {
	case rsi != nil && *rsi >= 70:
		return "overbought — stretched momentum, pullback risk elevated"
	case rsi != nil && *rsi <= 30:
		return "oversold — downside momentum exhausted, watch for reversal"
	case dayChangePct >= 1:
		return "bullish — buyers in control of the session"
	case dayChangePct <= -1:
		return "bearish — sellers pressing the session"
	default:
		return "neutral — range-bound, no directional edge"
	}
}
