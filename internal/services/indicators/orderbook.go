package indicators

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// NeutralImbalance is returned for empty or malformed books.
const NeutralImbalance = 0.5

func usableLevel(l models.Level) bool {
	return l.Price > 0 && l.Size > 0 && !math.IsNaN(l.Size) && !math.IsInf(l.Size, 0) && !math.IsNaN(l.Price)
}

// OrderBookImbalance is bid volume / (bid + ask volume). Levels with
// non-positive or non-finite values are skipped.
func OrderBookImbalance(book *models.OrderBook) float64 {
	if book == nil {
		return NeutralImbalance
	}
	return imbalance(book, func(models.Level, bool) bool { return true })
}

// OrderBookPressure is the imbalance restricted to levels within pct of the mid price.
func OrderBookPressure(book *models.OrderBook, pct float64) float64 {
	if book == nil {
		return NeutralImbalance
	}
	mid, ok := book.Mid()
	if !ok {
		return NeutralImbalance
	}
	lo, hi := mid*(1-pct), mid*(1+pct)
	return imbalance(book, func(l models.Level, bid bool) bool {
		if bid {
			return l.Price >= lo
		}
		return l.Price <= hi
	})
}

func imbalance(book *models.OrderBook, keep func(models.Level, bool) bool) float64 {
	var bids, asks float64
	for _, l := range book.Bids {
		if usableLevel(l) && keep(l, true) {
			bids += l.Size
		}
	}
	for _, l := range book.Asks {
		if usableLevel(l) && keep(l, false) {
			asks += l.Size
		}
	}
	return Clamp(SafeDiv(bids, bids+asks, NeutralImbalance), 0, 1)
}
