package strategy

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

var _ domsvc.Strategy = (*MACrossover)(nil)

// MACrossover trades golden/death crosses of a short and a long EMA and falls
// back to trend following when the averages are clearly separated.
type MACrossover struct {
	shortPeriod    int
	longPeriod     int
	trendThreshold float64
}

func NewMACrossover() *MACrossover {
	return &MACrossover{shortPeriod: 10, longPeriod: 21, trendThreshold: 0.005}
}

func (s *MACrossover) Name() string { return string(IDMACrossover) }

func (s *MACrossover) Analyze(bars []models.Bar, _ *models.OrderBook, _ string) models.Signal {
	if !indicators.Usable(bars, s.longPeriod+1) {
		return models.Insufficient()
	}
	n := len(bars)
	price := indicators.LastClose(bars)
	short := indicators.EMA(bars, s.shortPeriod)
	long := indicators.EMA(bars, s.longPeriod)
	prevShort := indicators.EMA(bars[:n-1], s.shortPeriod)
	prevLong := indicators.EMA(bars[:n-1], s.longPeriod)

	sep := indicators.SafeDiv(short-long, long, 0)
	absSep := math.Abs(sep)

	switch {
	case prevShort <= prevLong && short > long:
		reason := fmt.Sprintf("Golden cross: EMA%d (%.4f) crossed above EMA%d (%.4f)", s.shortPeriod, short, s.longPeriod, long)
		return newSignal(models.ActionBuy, math.Max(absSep*50, 0.1), reason).
			WithLevels(price*(1+absSep*2), long*0.98)
	case prevShort >= prevLong && short < long:
		reason := fmt.Sprintf("Death cross: EMA%d (%.4f) crossed below EMA%d (%.4f)", s.shortPeriod, short, s.longPeriod, long)
		return newSignal(models.ActionSell, math.Max(absSep*50, 0.1), reason).
			WithLevels(price*(1-absSep*2), long*1.02)
	case sep > s.trendThreshold:
		reason := fmt.Sprintf("Strong upward trend: EMA%d above EMA%d by %.2f%%", s.shortPeriod, s.longPeriod, sep*100)
		return newSignal(models.ActionBuy, math.Min(0.7, absSep*20), reason).
			WithLevels(price*(1+absSep), long)
	case sep < -s.trendThreshold:
		reason := fmt.Sprintf("Strong downward trend: EMA%d below EMA%d by %.2f%%", s.shortPeriod, s.longPeriod, absSep*100)
		return newSignal(models.ActionSell, math.Min(0.7, absSep*20), reason).
			WithLevels(price*(1-absSep), long)
	}
	return models.Hold(fmt.Sprintf("No crossover: EMA separation %.2f%% within %.2f%%", sep*100, s.trendThreshold*100))
}
