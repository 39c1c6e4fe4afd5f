// Package sizing turns signals into position sizes under a risk configuration.
package sizing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/domain/models"
)

const quantityDecimals = 8

var multipliers = map[models.RiskLevel]float64{
	models.RiskLow:    0.25,
	models.RiskMedium: 0.50,
	models.RiskHigh:   0.75,
}

var thresholds = map[models.RiskLevel]float64{
	models.RiskLow:    0.7,
	models.RiskMedium: 0.5,
	models.RiskHigh:   0.3,
}

// Multiplier returns the share of MaxNotional a full-confidence signal may use.
// Unknown levels are treated as medium.
func Multiplier(level models.RiskLevel) float64 {
	if m, ok := multipliers[level]; ok {
		return m
	}
	return multipliers[models.RiskMedium]
}

// Threshold returns the minimum confidence for a signal to be actionable.
// Unknown levels are treated as medium.
func Threshold(level models.RiskLevel) float64 {
	if t, ok := thresholds[level]; ok {
		return t
	}
	return thresholds[models.RiskMedium]
}

// IsActionable reports whether a signal clears the confidence threshold for level.
// Hold signals are never actionable.
func IsActionable(signal models.Signal, level models.RiskLevel) bool {
	return signal.Action != models.ActionHold && signal.Confidence > Threshold(level)
}

// Size computes maxNotional * multiplier * confidence / referencePrice,
// rounded down to 8 decimals.
func Size(signal models.Signal, cfg models.RiskConfig, referencePrice float64) models.PositionSize {
	if math.IsNaN(referencePrice) || math.IsInf(referencePrice, 0) || referencePrice <= 0 {
		return models.PositionSize{Reason: fmt.Sprintf("invalid reference price %v", referencePrice)}
	}
	if !IsActionable(signal, cfg.Level) {
		return models.PositionSize{
			Reason: fmt.Sprintf("%s signal at confidence %.2f below %s-risk threshold %.2f",
				signal.Action, signal.Confidence, cfg.Level, Threshold(cfg.Level)),
		}
	}

	notional := decimal.NewFromFloat(cfg.MaxNotional).
		Mul(decimal.NewFromFloat(Multiplier(cfg.Level))).
		Mul(decimal.NewFromFloat(signal.Confidence))
	qty := notional.Div(decimal.NewFromFloat(referencePrice)).RoundDown(quantityDecimals)
	if !qty.IsPositive() {
		return models.PositionSize{Reason: "position rounds to zero"}
	}

	return models.PositionSize{
		Quantity:   qty.InexactFloat64(),
		Notional:   qty.Mul(decimal.NewFromFloat(referencePrice)).Round(2).InexactFloat64(),
		Actionable: true,
		Reason:     fmt.Sprintf("%s %s at %.2f confidence, %s risk", signal.Action, qty.String(), signal.Confidence, cfg.Level),
	}
}
