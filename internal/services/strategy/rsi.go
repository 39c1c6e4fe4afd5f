package strategy

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

var _ domsvc.Strategy = (*RSIOscillator)(nil)

// RSIOscillator trades reversals out of the oversold and overbought zones.
type RSIOscillator struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSIOscillator() *RSIOscillator {
	return &RSIOscillator{period: 14, oversold: 30, overbought: 70}
}

func (s *RSIOscillator) Name() string { return string(IDRSIOscillator) }

func (s *RSIOscillator) Analyze(bars []models.Bar, _ *models.OrderBook, _ string) models.Signal {
	// one extra bar for the previous reading
	if !indicators.Usable(bars, s.period+2) {
		return models.Insufficient()
	}
	n := len(bars)
	price := indicators.LastClose(bars)
	rsi := indicators.RSI(bars, s.period)
	prev := indicators.RSI(bars[:n-1], s.period)
	mean := indicators.SMA(bars, 20)

	switch {
	case rsi < s.oversold && rsi > prev:
		conf := indicators.Clamp(0.5+(s.oversold-rsi)/30, 0, 0.9)
		reason := fmt.Sprintf("RSI oversold and rising (%.1f from %.1f)", rsi, prev)
		return newSignal(models.ActionBuy, conf, reason).WithLevels(above(mean, price, 1.03), price*0.97)
	case rsi > s.overbought && rsi < prev:
		conf := indicators.Clamp(0.5+(rsi-s.overbought)/30, 0, 0.9)
		reason := fmt.Sprintf("RSI overbought and falling (%.1f from %.1f)", rsi, prev)
		return newSignal(models.ActionSell, conf, reason).WithLevels(below(mean, price, 0.97), price*1.03)
	case rsi < 20:
		return newSignal(models.ActionBuy, 0.6, fmt.Sprintf("RSI extremely oversold (%.1f)", rsi)).
			WithLevels(above(mean, price, 1.03), price*0.95)
	case rsi > 80:
		return newSignal(models.ActionSell, 0.6, fmt.Sprintf("RSI extremely overbought (%.1f)", rsi)).
			WithLevels(below(mean, price, 0.97), price*1.05)
	case rsi < s.oversold:
		return models.Hold(fmt.Sprintf("RSI oversold (%.1f) but still falling", rsi))
	case rsi > s.overbought:
		return models.Hold(fmt.Sprintf("RSI overbought (%.1f) but still rising", rsi))
	}
	return models.Hold(fmt.Sprintf("RSI in neutral zone (%.1f)", rsi))
}

// above returns level when it lies above price, otherwise price*fallback.
func above(level, price, fallback float64) float64 {
	if level > price {
		return level
	}
	return price * fallback
}

// below returns level when it lies below price, otherwise price*fallback.
func below(level, price, fallback float64) float64 {
	if level > 0 && level < price {
		return level
	}
	return price * fallback
}
