package strategy

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

var _ domsvc.Strategy = (*BollingerBands)(nil)

// BollingerBands trades band touches and flags squeezes.
type BollingerBands struct {
	period       int
	k            float64
	squeezeWidth float64
}

func NewBollingerBands() *BollingerBands {
	return &BollingerBands{period: 20, k: 2.0, squeezeWidth: 0.03}
}

func (s *BollingerBands) Name() string { return string(IDBollingerBands) }

func (s *BollingerBands) Analyze(bars []models.Bar, _ *models.OrderBook, _ string) models.Signal {
	if !indicators.Usable(bars, s.period) {
		return models.Insufficient()
	}
	price := indicators.LastClose(bars)
	b := indicators.Bollinger(bars, s.period, s.k)

	if b.Upper-b.Lower <= 0 {
		return newSignal(models.ActionHold, 0.6, "Bollinger squeeze: bands collapsed, breakout expected")
	}

	switch {
	case price <= b.Lower:
		pct := indicators.SafeDiv(b.Lower-price, b.Lower, 0)
		reason := fmt.Sprintf("Price at or below lower Bollinger band (%.2f%% below %.4f)", pct*100, b.Lower)
		return newSignal(models.ActionBuy, indicators.Clamp(0.5+pct*10, 0, 0.9), reason).
			WithLevels(b.Middle, price*0.98)
	case price >= b.Upper:
		pct := indicators.SafeDiv(price-b.Upper, b.Upper, 0)
		reason := fmt.Sprintf("Price at or above upper Bollinger band (%.2f%% above %.4f)", pct*100, b.Upper)
		return newSignal(models.ActionSell, indicators.Clamp(0.5+pct*10, 0, 0.9), reason).
			WithLevels(b.Middle, price*1.02)
	case b.Width < s.squeezeWidth:
		reason := fmt.Sprintf("Bollinger squeeze: band width %.2f%% of mean, breakout expected", b.Width*100)
		return newSignal(models.ActionHold, 0.6, reason)
	}

	pos := indicators.SafeDiv(price-b.Lower, b.Upper-b.Lower, 0.5)
	switch {
	case pos < 0.25:
		return newSignal(models.ActionBuy, 0.3, fmt.Sprintf("Price in lower quarter of Bollinger band (position %.2f)", pos)).
			WithLevels(b.Middle, b.Lower*0.99)
	case pos > 0.75:
		return newSignal(models.ActionSell, 0.3, fmt.Sprintf("Price in upper quarter of Bollinger band (position %.2f)", pos)).
			WithLevels(b.Middle, b.Upper*1.01)
	}
	return models.Hold(fmt.Sprintf("Price mid-band (position %.2f)", pos))
}
