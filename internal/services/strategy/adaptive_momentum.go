package strategy

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

var _ domsvc.Strategy = (*AdaptiveMomentum)(nil)

const (
	amMinBars         = 30
	amVolPeriod       = 20
	amBaseVolatility  = 0.02
	amBaseLookback    = 10
	amBaseThreshold   = 0.02
	amLevelWindow     = 10
	amMinTests        = 3
	amVolumeSurge     = 1.2
	amPressureWithin  = 0.02
	amTrendConfirm    = 0.25
	amMaxConfidence   = 0.95
	amTouchTolerance  = 0.005
	amTrendPeriod     = 14
	amRSIPeriod       = 14
	amBidHeavy        = 0.55
	amAskHeavy        = 0.45
	amBreakoutStopPad = 0.99
)

// AdaptiveMomentum scales its lookback, momentum threshold and RSI bounds with
// recent volatility and combines them with support/resistance tests and
// order-book pressure.
type AdaptiveMomentum struct{}

func NewAdaptiveMomentum() *AdaptiveMomentum { return &AdaptiveMomentum{} }

func (s *AdaptiveMomentum) Name() string { return string(IDAdaptiveMomentum) }

type momentumInputs struct {
	factor     float64
	momentum   float64
	threshold  float64
	trend      float64
	pressure   float64
	rsi        float64
	overbought float64
	oversold   float64
	support    float64
	resistance float64
	supTests   int
	resTests   int
	volSurge   bool
}

func (s *AdaptiveMomentum) inputs(bars []models.Bar, book *models.OrderBook) momentumInputs {
	n := len(bars)
	factor := indicators.Clamp(indicators.Volatility(bars, amVolPeriod)/amBaseVolatility, 0.5, 1.5)
	lookback := int(indicators.Clamp(math.Round(amBaseLookback*factor), 5, 15))

	window := bars[n-1-amLevelWindow : n-1]
	tol := amTouchTolerance * factor
	in := momentumInputs{
		factor:     factor,
		momentum:   indicators.PriceChange(bars, lookback),
		threshold:  amBaseThreshold * factor,
		trend:      indicators.TrendStrength(bars, amTrendPeriod),
		pressure:   indicators.OrderBookPressure(book, amPressureWithin),
		rsi:        indicators.RSI(bars, amRSIPeriod),
		overbought: 70 + 10*(factor-1),
		oversold:   30 - 10*(factor-1),
		support:    indicators.LowestLow(window),
		resistance: indicators.HighestHigh(window),
	}
	in.supTests = indicators.Touches(window, in.support, tol, false)
	in.resTests = indicators.Touches(window, in.resistance, tol, true)

	cur, prev := bars[n-1], bars[n-2]
	in.volSurge = prev.Volume > 0 && cur.Volume >= amVolumeSurge*prev.Volume
	return in
}

func (s *AdaptiveMomentum) Analyze(bars []models.Bar, book *models.OrderBook, _ string) models.Signal {
	if !indicators.Usable(bars, amMinBars) {
		return models.Insufficient()
	}
	in := s.inputs(bars, book)
	price := indicators.LastClose(bars)
	rng := in.resistance - in.support
	strength := indicators.SafeDiv(math.Abs(in.momentum), in.threshold, 0)

	switch {
	case in.resTests >= amMinTests && price > in.resistance && in.volSurge:
		conf := 0.6 + in.trend*0.2 + (in.pressure-0.5)*0.4
		reason := fmt.Sprintf("Breakout above resistance %.4f tested %d times on rising volume", in.resistance, in.resTests)
		return capped(models.ActionBuy, conf, reason).WithLevels(price+rng, in.resistance*amBreakoutStopPad)

	case in.supTests >= amMinTests && price < in.support && in.volSurge:
		conf := 0.6 + in.trend*0.2 + (0.5-in.pressure)*0.4
		reason := fmt.Sprintf("Breakdown below support %.4f tested %d times on rising volume", in.support, in.supTests)
		return capped(models.ActionSell, conf, reason).WithLevels(price-rng, in.support*(2-amBreakoutStopPad))

	case in.momentum > in.threshold && in.trend > amTrendConfirm && in.pressure >= 0.5 && in.rsi < in.overbought:
		conf := 0.5 + strength*0.1 + in.trend*0.2
		reason := fmt.Sprintf("Trend-following buy: momentum %.2f%% above %.2f%%, trend %.2f, RSI %.1f",
			in.momentum*100, in.threshold*100, in.trend, in.rsi)
		return capped(models.ActionBuy, conf, reason).WithLevels(price*(1+in.momentum), price*(1-in.threshold))

	case in.momentum < -in.threshold && in.trend > amTrendConfirm && in.pressure <= 0.5 && in.rsi > in.oversold:
		conf := 0.5 + strength*0.1 + in.trend*0.2
		reason := fmt.Sprintf("Trend-following sell: momentum %.2f%% below -%.2f%%, trend %.2f, RSI %.1f",
			in.momentum*100, in.threshold*100, in.trend, in.rsi)
		return capped(models.ActionSell, conf, reason).WithLevels(price*(1+in.momentum), price*(1+in.threshold))

	case in.rsi < in.oversold && in.momentum < -in.threshold && in.pressure > amBidHeavy:
		conf := 0.5 + (in.oversold-in.rsi)/100
		reason := fmt.Sprintf("Countertrend bounce: RSI %.1f below %.1f with bid pressure %.2f", in.rsi, in.oversold, in.pressure)
		return capped(models.ActionBuy, conf, reason).WithLevels(price*(1+in.threshold), price*(1-in.threshold))

	case in.rsi > in.overbought && in.momentum > in.threshold && in.pressure < amAskHeavy:
		conf := 0.5 + (in.rsi-in.overbought)/100
		reason := fmt.Sprintf("Countertrend short: RSI %.1f above %.1f with ask pressure %.2f", in.rsi, in.overbought, in.pressure)
		return capped(models.ActionSell, conf, reason).WithLevels(price*(1-in.threshold), price*(1+in.threshold))
	}

	return models.Hold(fmt.Sprintf("No momentum setup: momentum %.2f%% vs threshold %.2f%%, trend %.2f",
		in.momentum*100, in.threshold*100, in.trend))
}

func capped(action models.Action, conf float64, reason string) models.Signal {
	return newSignal(action, math.Min(conf, amMaxConfidence), reason)
}
