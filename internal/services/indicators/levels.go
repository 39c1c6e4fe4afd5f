package indicators

import "SignalDesk/internal/domain/models"

// Pivots are classic floor-trader pivot levels.
type Pivots struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// PivotPoints derives pivot levels from the most recent bar. Empty input yields zeros.
func PivotPoints(bars []models.Bar) Pivots {
	if len(bars) == 0 {
		return Pivots{}
	}
	b := bars[len(bars)-1]
	p := (b.High + b.Low + b.Close) / 3
	rng := b.High - b.Low
	return Pivots{
		Pivot: p,
		R1:    2*p - b.Low,
		S1:    2*p - b.High,
		R2:    p + rng,
		S2:    p - rng,
		R3:    b.High + 2*(p-b.Low),
		S3:    b.Low - 2*(b.High-p),
	}
}

// HighestHigh returns the highest high of bars, 0 when empty.
func HighestHigh(bars []models.Bar) float64 {
	var hi float64
	for i, b := range bars {
		if i == 0 || b.High > hi {
			hi = b.High
		}
	}
	return hi
}

// LowestLow returns the lowest low of bars, 0 when empty.
func LowestLow(bars []models.Bar) float64 {
	var lo float64
	for i, b := range bars {
		if i == 0 || b.Low < lo {
			lo = b.Low
		}
	}
	return lo
}

// Touches counts bars whose high (resistance) or low (support) lies within tol
// (fractional) of level.
func Touches(bars []models.Bar, level, tol float64, resistance bool) int {
	if level <= 0 {
		return 0
	}
	count := 0
	for _, b := range bars {
		v := b.Low
		if resistance {
			v = b.High
		}
		d := (v - level) / level
		if d < 0 {
			d = -d
		}
		if d <= tol {
			count++
		}
	}
	return count
}
