// Package indicators implements the technical indicators used by the strategies and the
// regime detector. Every function is pure and tolerates short or malformed input by
// returning a documented neutral value instead of failing.
package indicators

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// SafeDiv returns a/b, or def when b is zero or the result is not finite.
func SafeDiv(a, b, def float64) float64 {
	if b == 0 {
		return def
	}
	v := a / b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Usable reports whether bars has at least min entries, every bar is valid and
// timestamps never go backwards. Strategies treat false as insufficient data.
func Usable(bars []models.Bar, min int) bool {
	if len(bars) < min || len(bars) == 0 {
		return false
	}
	for i, b := range bars {
		if !b.Valid() {
			return false
		}
		if i > 0 && b.Timestamp < bars[i-1].Timestamp {
			return false
		}
	}
	return true
}

// LastClose returns the close of the most recent bar, 0 for an empty series.
func LastClose(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].Close
}

func lastValue(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
