package regime

import (
	"math"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/indicators"
)

const (
	volumeSurgeThreshold   = 1.8
	priceIncreaseThreshold = 0.03
	macdThreshold          = 0.0015
	rsiThreshold           = 65.0
	imbalanceThreshold     = 0.6

	bullRunThreshold = 0.65
	maxConfidence    = 0.95

	volumePeriod     = 10
	priceLookback    = 5
	rsiPeriod        = 14
	volatilityPeriod = 14
	segmentLen       = 5

	defaultStopLoss = 2.0
	minStopLoss     = 1.0
	maxStopLoss     = 5.0
)

// Factor names as reported in RegimeAssessment.Factors.
const (
	FactorVolumeSurge   = "volume_surge"
	FactorPriceIncrease = "price_increase"
	FactorRSI           = "rsi_strength"
	FactorMACD          = "macd_bullish"
	FactorStructure     = "higher_highs_lows"
	FactorImbalance     = "bid_imbalance"
)

type weighted struct {
	name   string
	weight float64
}

// weights are summed in this order so the score is deterministic.
var weights = []weighted{
	{FactorVolumeSurge, 0.20},
	{FactorPriceIncrease, 0.25},
	{FactorRSI, 0.15},
	{FactorMACD, 0.15},
	{FactorStructure, 0.15},
	{FactorImbalance, 0.10},
}

// evaluate checks each bull-run factor against the latest bars and book.
func evaluate(bars []models.Bar, book *models.OrderBook) map[string]bool {
	price := indicators.LastClose(bars)
	m := indicators.MACD(bars)

	return map[string]bool{
		FactorVolumeSurge:   indicators.VolumeRatio(bars, volumePeriod) > volumeSurgeThreshold,
		FactorPriceIncrease: indicators.PriceChange(bars, priceLookback) > priceIncreaseThreshold,
		FactorRSI:           indicators.RSI(bars, rsiPeriod) > rsiThreshold,
		FactorMACD:          m.MACD > m.Signal && indicators.SafeDiv(m.MACD, price, 0) > macdThreshold,
		FactorStructure:     higherHighsAndLows(bars),
		FactorImbalance:     indicators.OrderBookImbalance(book) > imbalanceThreshold,
	}
}

func score(factors map[string]bool) float64 {
	var s float64
	for _, w := range weights {
		if factors[w.name] {
			s += w.weight
		}
	}
	return s
}

// higherHighsAndLows splits the last 15 bars into three 5-bar segments and
// requires both the segment highs and the segment lows to rise.
func higherHighsAndLows(bars []models.Bar) bool {
	n := len(bars)
	if n < 3*segmentLen {
		return false
	}
	var highs, lows [3]float64
	for i := 0; i < 3; i++ {
		seg := bars[n-(3-i)*segmentLen : n-(2-i)*segmentLen]
		highs[i] = indicators.HighestHigh(seg)
		lows[i] = indicators.LowestLow(seg)
	}
	return highs[0] < highs[1] && highs[1] < highs[2] &&
		lows[0] < lows[1] && lows[1] < lows[2]
}

// stopLossPercent widens with volatility and tightens with confidence,
// clamped to [1,5] and rounded to one decimal.
func stopLossPercent(volatility, confidence float64) float64 {
	raw := volatility * 100 * 2 * (1 - confidence*0.3)
	if math.IsNaN(raw) {
		return defaultStopLoss
	}
	v := indicators.Clamp(raw, minStopLoss, maxStopLoss)
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
