package regime

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/indicators"
)

const (
	reportTopN = 20

	veryBullishChange = 8.0
	bullishChange     = 3.0
	breakoutChange    = 10.0
	whaleVolume       = 50_000_000.0
	whaleChange       = 2.0
	flagshipMove      = 3.0
	sectorMove        = 5.0
	broadStrengthMin  = 5

	bullishSentiment = 60.0
	bearishSentiment = 40.0

	tierOneSize   = 3
	tierTwoSize   = 4
	tierThreeSize = 5

	flagship = "BTC"
)

type sector struct {
	name    string
	members []string
}

// sectors are checked in this order when building narratives.
var sectors = []sector{
	{"DeFi", []string{"UNI", "AAVE", "MKR", "COMP", "SNX", "CRV", "LDO", "SUSHI", "1INCH", "DYDX"}},
	{"Layer-1", []string{"ETH", "SOL", "ADA", "AVAX", "DOT", "NEAR", "ATOM", "APT", "SUI", "TRX"}},
	{"Meme", []string{"DOGE", "SHIB", "PEPE", "WIF", "BONK", "FLOKI"}},
	{"AI", []string{"FET", "AGIX", "RNDR", "OCEAN", "TAO", "WLD"}},
}

func usableSnapshot(s models.InstrumentSnapshot) bool {
	for _, v := range []float64{s.MarketCap, s.Change24h, s.Volume24h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return strings.TrimSpace(s.Symbol) != ""
}

// rank keeps usable snapshots, uppercases symbols and returns the top 20 by market cap.
func rank(snapshots []models.InstrumentSnapshot) []models.InstrumentSnapshot {
	ranked := make([]models.InstrumentSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if !usableSnapshot(s) {
			continue
		}
		s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MarketCap > ranked[j].MarketCap })
	if len(ranked) > reportTopN {
		ranked = ranked[:reportTopN]
	}
	return ranked
}

// BuildReport derives a MarketAnalysisReport from a cross-sectional snapshot.
// Every list is non-nil so the persisted form round-trips unchanged.
func BuildReport(snapshots []models.InstrumentSnapshot, now time.Time) models.MarketAnalysisReport {
	ranked := rank(snapshots)

	var veryBullish, bullish, moderate []models.InstrumentSnapshot
	for _, s := range ranked {
		switch {
		case s.Change24h > veryBullishChange:
			veryBullish = append(veryBullish, s)
			bullish = append(bullish, s)
		case s.Change24h > bullishChange:
			bullish = append(bullish, s)
		case s.Change24h >= 0:
			moderate = append(moderate, s)
		}
	}

	report := models.MarketAnalysisReport{
		Narratives:          []string{},
		WhaleBuying:         []string{},
		WhaleSelling:        []string{},
		WhaleNeutral:        []string{},
		BreakoutInstruments: []string{},
		GeneratedAt:         now.UnixMilli(),
	}

	report.SentimentScore = sentimentScore(ranked)
	switch {
	case report.SentimentScore > bullishSentiment:
		report.Sentiment = models.SentimentBullish
	case report.SentimentScore < bearishSentiment:
		report.Sentiment = models.SentimentBearish
	default:
		report.Sentiment = models.SentimentNeutral
	}

	taken := make(map[string]bool)
	report.TierOneInstruments = pickTier(veryBullish, tierOneSize, taken)
	report.TierTwoInstruments = pickTier(bullish, tierTwoSize, taken)
	report.TierThreeInstruments = pickTier(moderate, tierThreeSize, taken)

	for _, s := range ranked {
		if s.Volume24h > whaleVolume {
			switch {
			case s.Change24h > whaleChange:
				report.WhaleBuying = append(report.WhaleBuying, s.Symbol)
			case s.Change24h < -whaleChange:
				report.WhaleSelling = append(report.WhaleSelling, s.Symbol)
			default:
				report.WhaleNeutral = append(report.WhaleNeutral, s.Symbol)
			}
		}
	}
	for _, s := range veryBullish {
		if s.Change24h > breakoutChange {
			report.BreakoutInstruments = append(report.BreakoutInstruments, s.Symbol)
		}
	}

	report.Narratives = narratives(ranked, len(veryBullish))
	return report
}

// sentimentScore is the market-cap weighted mean of each instrument's 0-100
// score, with the cap weight decaying by rank: w_i = cap_i * (N-i)/N.
// When no instrument has a positive cap the rank decay alone is used.
// An empty snapshot is neutral.
func sentimentScore(ranked []models.InstrumentSnapshot) float64 {
	n := len(ranked)
	if n == 0 {
		return 50
	}
	values := make([]float64, n)
	capW := make([]float64, n)
	rankW := make([]float64, n)
	var capSum float64
	for i, s := range ranked {
		values[i] = indicators.Clamp(50+5*s.Change24h, 0, 100)
		rankW[i] = float64(n-i) / float64(n)
		capW[i] = math.Max(s.MarketCap, 0) * rankW[i]
		capSum += capW[i]
	}
	w := capW
	if capSum == 0 {
		w = rankW
	}
	return decimal.NewFromFloat(stat.Mean(values, w)).Round(2).InexactFloat64()
}

// pickTier returns up to size symbols from bucket by descending change,
// skipping and then marking symbols already taken by a higher tier.
func pickTier(bucket []models.InstrumentSnapshot, size int, taken map[string]bool) []string {
	sorted := append([]models.InstrumentSnapshot(nil), bucket...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Change24h > sorted[j].Change24h })

	out := []string{}
	for _, s := range sorted {
		if len(out) == size {
			break
		}
		if taken[s.Symbol] {
			continue
		}
		taken[s.Symbol] = true
		out = append(out, s.Symbol)
	}
	return out
}

func narratives(ranked []models.InstrumentSnapshot, veryBullishCount int) []string {
	bySymbol := make(map[string]models.InstrumentSnapshot, len(ranked))
	for _, s := range ranked {
		bySymbol[s.Symbol] = s
	}

	out := []string{}
	if btc, ok := bySymbol[flagship]; ok {
		switch {
		case btc.Change24h > flagshipMove:
			out = append(out, fmt.Sprintf("Bitcoin leadership: BTC up %.1f%% in 24h", btc.Change24h))
		case btc.Change24h < -flagshipMove:
			out = append(out, fmt.Sprintf("Bitcoin weakness: BTC down %.1f%% in 24h", -btc.Change24h))
		}
	}

	for _, sec := range sectors {
		var changes []float64
		for _, sym := range sec.members {
			if s, ok := bySymbol[sym]; ok {
				changes = append(changes, s.Change24h)
			}
		}
		if len(changes) == 0 {
			continue
		}
		if mean := stat.Mean(changes, nil); mean > sectorMove {
			out = append(out, fmt.Sprintf("%s sector rally: average %+.1f%% across %d tokens", sec.name, mean, len(changes)))
		}
	}

	if veryBullishCount >= broadStrengthMin {
		out = append(out, fmt.Sprintf("Broad market strength: %d large caps up more than %.0f%%", veryBullishCount, veryBullishChange))
	}
	if len(out) == 0 {
		out = append(out, "Market consolidation: no dominant narrative")
	}
	return out
}
