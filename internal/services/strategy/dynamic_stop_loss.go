package strategy

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

var _ domsvc.Strategy = (*DynamicStopLoss)(nil)

const (
	dslMinBars        = 50
	dslATRPeriod      = 14
	dslStopMultiplier = 1.5
	dslMinStop        = 1.0
	dslMaxStop        = 8.0
	dslRegimeCutoff   = 0.5
	dslRegimeTighten  = 0.4
	dslStrongTrend    = 0.25
	dslVeryStrong     = 0.5
	dslFlatTrend      = 0.2
	dslNearLevel      = 0.01
)

// DynamicStopLoss sizes its stop from ATR, tightened while the regime detector
// reports a confident bull run, and boosts confidence for instruments the
// latest market report ranks highly.
type DynamicStopLoss struct {
	regime domsvc.RegimeReader
}

// NewDynamicStopLoss builds the strategy. regime may be nil, in which case no
// regime or report support is ever assumed.
func NewDynamicStopLoss(regime domsvc.RegimeReader) *DynamicStopLoss {
	return &DynamicStopLoss{regime: regime}
}

func (s *DynamicStopLoss) Name() string { return string(IDDynamicStopLoss) }

func (s *DynamicStopLoss) regimeConfidence(instrument string) (float64, bool) {
	if s.regime == nil {
		return 0, false
	}
	return s.regime.LatestConfidence(instrument)
}

// tierBoost sums the tier and breakout boosts, then scales the sum by report sentiment.
func (s *DynamicStopLoss) tierBoost(instrument string) float64 {
	if s.regime == nil {
		return 0
	}
	report := s.regime.LatestReport()
	if report == nil {
		return 0
	}
	var boost float64
	switch report.Tier(instrument) {
	case 1:
		boost = 0.15
	case 2:
		boost = 0.10
	case 3:
		boost = 0.05
	}
	if report.IsBreakout(instrument) {
		boost += 0.05
	}
	switch report.Sentiment {
	case models.SentimentBullish:
		boost *= 1.2
	case models.SentimentBearish:
		boost *= 0.8
	}
	return boost
}

// StopPercent returns the stop distance in percent for the latest bar of instrument.
func (s *DynamicStopLoss) StopPercent(bars []models.Bar, instrument string) float64 {
	price := indicators.LastClose(bars)
	stop := indicators.Clamp(indicators.SafeDiv(indicators.ATR(bars, dslATRPeriod), price, 0)*100*dslStopMultiplier, dslMinStop, dslMaxStop)
	if conf, ok := s.regimeConfidence(instrument); ok && conf > dslRegimeCutoff {
		stop *= 1 - conf*dslRegimeTighten
	}
	return stop
}

func (s *DynamicStopLoss) Analyze(bars []models.Bar, _ *models.OrderBook, instrument string) models.Signal {
	if !indicators.Usable(bars, dslMinBars) {
		return models.Insufficient()
	}
	n := len(bars)
	cur := bars[n-1]
	price := cur.Close

	stopPct := s.StopPercent(bars, instrument)
	regimeConf, hasRegime := s.regimeConfidence(instrument)
	var regimeTerm float64
	if hasRegime {
		regimeTerm = regimeConf * 0.2
	}
	boost := s.tierBoost(instrument)
	supported := (hasRegime && regimeConf > dslRegimeCutoff) || boost > 0

	ma20 := indicators.SMA(bars, 20)
	ma50 := indicators.SMA(bars, 50)
	ma200 := indicators.SMA(bars, min(200, n))
	trend := indicators.TrendStrength(bars, 14)
	volRatio := indicators.VolumeRatio(bars, 10)
	piv := indicators.PivotPoints(bars[:n-1])
	prior20High := indicators.HighestHigh(bars[n-21 : n-1])

	uptrend := price > ma20 && ma20 > ma50
	longStop := price * (1 - stopPct/100)
	shortStop := price * (1 + stopPct/100)

	switch {
	case uptrend && ma50 > ma200 && trend > dslStrongTrend && volRatio > 1.2 && supported:
		target := piv.R1
		if trend > dslVeryStrong {
			target = piv.R2
		}
		conf := 0.6 + trend*0.2 + regimeTerm + boost
		reason := fmt.Sprintf("Strong aligned uptrend (MA20>MA50>MA200, trend %.2f) on %.1fx volume; regime %.2f, boost %.2f, stop %.1f%%",
			trend, volRatio, regimeConf, boost, stopPct)
		return newSignal(models.ActionBuy, math.Min(conf, 0.95), reason).WithLevels(above(target, price, 1+2*stopPct/100), longStop)

	case price < ma20 && ma20 < ma50 && ma50 < ma200 && trend > dslStrongTrend && volRatio > 1.5:
		conf := 0.6 + trend*0.2
		reason := fmt.Sprintf("Strong aligned downtrend (MA20<MA50<MA200, trend %.2f) on %.1fx volume, stop %.1f%%",
			trend, volRatio, stopPct)
		return newSignal(models.ActionSell, math.Min(conf, 0.95), reason).WithLevels(below(piv.S1, price, 1-2*stopPct/100), shortStop)

	case trend < dslFlatTrend && price > prior20High && volRatio > 2 && supported:
		conf := 0.55 + regimeTerm + boost
		reason := fmt.Sprintf("Range breakout above 20-bar high %.4f on %.1fx volume, stop %.1f%%", prior20High, volRatio, stopPct)
		return newSignal(models.ActionBuy, math.Min(conf, 0.95), reason).WithLevels(above(piv.R1, price, 1+2*stopPct/100), longStop)

	case uptrend && indicators.SafeDiv(math.Abs(price-ma20), ma20, 1) <= dslNearLevel:
		conf := 0.5 + regimeTerm/2 + boost
		reason := fmt.Sprintf("Pullback to 20-MA %.4f in uptrend, stop %.1f%%", ma20, stopPct)
		return newSignal(models.ActionBuy, math.Min(conf, 0.9), reason).WithLevels(above(piv.R1, price, 1+2*stopPct/100), longStop)

	case piv.S1 > 0 && indicators.SafeDiv(math.Abs(price-piv.S1), piv.S1, 1) <= dslNearLevel && cur.Close > cur.Open && supported:
		conf := 0.45 + regimeTerm + boost
		reason := fmt.Sprintf("Bounce from S1 %.4f on a green bar, stop %.1f%%", piv.S1, stopPct)
		return newSignal(models.ActionBuy, math.Min(conf, 0.85), reason).WithLevels(above(piv.Pivot, price, 1+2*stopPct/100), longStop)
	}

	return models.Hold(fmt.Sprintf("No stop-loss setup: trend %.2f, volume %.1fx, stop %.1f%%", trend, volRatio, stopPct))
}
