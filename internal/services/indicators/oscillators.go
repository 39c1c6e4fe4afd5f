package indicators

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// RSINeutral is returned when there are not enough bars for an RSI reading.
const RSINeutral = 50.0

// RSI uses the simple average gain and loss over the last period deltas.
// It returns 100 when the average loss is exactly zero.
func RSI(bars []models.Bar, period int) float64 {
	closes := models.Closes(bars)
	n := len(closes)
	if period <= 0 || n < period+1 {
		return RSINeutral
	}
	var gain, loss float64
	for i := n - period; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rsi := 100 - 100/(1+avgGain/avgLoss)
	if math.IsNaN(rsi) {
		return RSINeutral
	}
	return Clamp(rsi, 0, 100)
}

// TrendStrength is an ADX-like directional-movement ratio in [0,1]:
// |sum(+DM) - sum(-DM)| / sum(TR) over the last period bars.
func TrendStrength(bars []models.Bar, period int) float64 {
	n := len(bars)
	if n < 2 || period <= 0 {
		return 0
	}
	start := n - period
	if start < 1 {
		start = 1
	}
	var plus, minus, tr float64
	for i := start; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plus += up
		}
		if down > up && down > 0 {
			minus += down
		}
		tr += trueRange(bars[i], bars[i-1].Close)
	}
	return Clamp(SafeDiv(math.Abs(plus-minus), tr, 0), 0, 1)
}

// PriceChange is the fractional change of the last close against the close
// lookback bars earlier. Short input yields 0.
func PriceChange(bars []models.Bar, lookback int) float64 {
	n := len(bars)
	if lookback <= 0 || n < lookback+1 {
		return 0
	}
	prev := bars[n-1-lookback].Close
	return SafeDiv(bars[n-1].Close-prev, prev, 0)
}

// VolumeRatio is the mean volume of the last period bars divided by the mean of
// the preceding period bars. It returns 1 for short input or a zero denominator.
func VolumeRatio(bars []models.Bar, period int) float64 {
	n := len(bars)
	if period <= 0 || n < 2*period {
		return 1
	}
	vols := models.Volumes(bars)
	recent := SMAValues(vols[n-period:], period)
	prior := SMAValues(vols[n-2*period:n-period], period)
	return SafeDiv(recent, prior, 1)
}
