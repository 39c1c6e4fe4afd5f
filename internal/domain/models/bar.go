package models

import "math"

// Bar is an OHLCV record. Timestamp is unix milliseconds.
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Valid reports whether prices are finite and positive, volume is finite and
// non-negative, and low <= min(open, close) <= max(open, close) <= high.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return false
	}
	return b.Low <= math.Min(b.Open, b.Close) && math.Max(b.Open, b.Close) <= b.High
}

// Closes projects the close series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes projects the volume series.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Level is one price level of an order book side.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds bids (descending by price) and asks (ascending by price).
// Either side may be empty.
type OrderBook struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// BestBid returns the top bid, ok=false when the book has no bids.
func (ob *OrderBook) BestBid() (Level, bool) {
	if ob == nil || len(ob.Bids) == 0 {
		return Level{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask, ok=false when the book has no asks.
func (ob *OrderBook) BestAsk() (Level, bool) {
	if ob == nil || len(ob.Asks) == 0 {
		return Level{}, false
	}
	return ob.Asks[0], true
}

// Mid returns the midpoint of best bid and best ask.
func (ob *OrderBook) Mid() (float64, bool) {
	bid, ok := ob.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return 0, false
	}
	if bid.Price <= 0 || ask.Price <= 0 {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}
