package indicators

import (
	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/domain/models"
)

// SMAValues is the simple moving average of the last period values.
// Fewer than period values yields the most recent value.
func SMAValues(xs []float64, period int) float64 {
	if period <= 0 || len(xs) < period {
		return lastValue(xs)
	}
	return stat.Mean(xs[len(xs)-period:], nil)
}

// EMAValues seeds with the SMA of the first period values and then applies
// k = 2/(period+1). Fewer than period values yields the most recent value.
func EMAValues(xs []float64, period int) float64 {
	if period <= 0 || len(xs) < period {
		return lastValue(xs)
	}
	k := 2.0 / float64(period+1)
	ema := stat.Mean(xs[:period], nil)
	for _, x := range xs[period:] {
		ema = (x-ema)*k + ema
	}
	return ema
}

// SMA of closes.
func SMA(bars []models.Bar, period int) float64 {
	return SMAValues(models.Closes(bars), period)
}

// EMA of closes.
func EMA(bars []models.Bar, period int) float64 {
	return EMAValues(models.Closes(bars), period)
}

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

const macdSignalWindow = 30

// MACD computes EMA(12) - EMA(26). The signal line is EMA(9) of the MACD series
// rebuilt over the trailing 30 bars. Fewer than 26 bars yields zeros.
func MACD(bars []models.Bar) MACDResult {
	closes := models.Closes(bars)
	n := len(closes)
	if n < 26 {
		return MACDResult{}
	}
	macd := EMAValues(closes, 12) - EMAValues(closes, 26)

	start := n - macdSignalWindow + 1
	if start < 26 {
		start = 26
	}
	series := make([]float64, 0, macdSignalWindow)
	for end := start; end <= n; end++ {
		prefix := closes[:end]
		series = append(series, EMAValues(prefix, 12)-EMAValues(prefix, 26))
	}
	signal := EMAValues(series, 9)
	return MACDResult{MACD: macd, Signal: signal, Histogram: macd - signal}
}
