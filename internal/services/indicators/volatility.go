package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/domain/models"
)

func trueRange(b models.Bar, prevClose float64) float64 {
	return math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}

// ATR averages the true range over the last period bars. With fewer bars it
// averages what is available; zero or one bar yields 0.
func ATR(bars []models.Bar, period int) float64 {
	n := len(bars)
	if n < 2 || period <= 0 {
		return 0
	}
	start := n - period
	if start < 1 {
		start = 1
	}
	var sum float64
	for i := start; i < n; i++ {
		sum += trueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(n-start)
}

// Returns computes simple returns. A non-positive previous close yields a 0 return.
func Returns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		out = append(out, SafeDiv(bars[i].Close-bars[i-1].Close, bars[i-1].Close, 0))
	}
	return out
}

// Volatility is the population standard deviation of simple returns over the
// trailing period bars, as a fraction. Fewer than two returns yields 0.
func Volatility(bars []models.Bar, period int) float64 {
	if period <= 0 {
		return 0
	}
	rets := Returns(bars)
	if len(rets) > period {
		rets = rets[len(rets)-period:]
	}
	if len(rets) < 2 {
		return 0
	}
	return stat.PopStdDev(rets, nil)
}

// Bands is a Bollinger envelope. Width is (Upper-Lower)/Middle.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64
}

// Bollinger returns middle = SMA(period) and bands at ±k population standard
// deviations. Short input collapses all three bands onto the last close.
func Bollinger(bars []models.Bar, period int, k float64) Bands {
	closes := models.Closes(bars)
	if period <= 0 || len(closes) < period {
		last := lastValue(closes)
		return Bands{Upper: last, Middle: last, Lower: last}
	}
	mean, std := stat.PopMeanStdDev(closes[len(closes)-period:], nil)
	upper, lower := mean+k*std, mean-k*std
	return Bands{
		Upper:  upper,
		Middle: mean,
		Lower:  lower,
		Width:  SafeDiv(upper-lower, mean, 0),
	}
}
