package service

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// Strategy turns a bar series and an order book into a Signal.
// Implementations never fail: short or malformed input yields a hold signal.
type Strategy interface {
	Analyze(bars []models.Bar, book *models.OrderBook, instrument string) models.Signal
	Name() string
}

// RegimeDetector scores bull-run conditions and keeps the detection state.
type RegimeDetector interface {
	AnalyzeMarket(ctx context.Context, bars []models.Bar, book *models.OrderBook, instrument string) models.RegimeAssessment
	GenerateMarketAnalysisReport(ctx context.Context, snapshots []models.InstrumentSnapshot) models.MarketAnalysisReport
	RecordOutcome(ctx context.Context, id string, success bool) bool
}

// RegimeReader is the read side of the detector used by the dynamic stop-loss strategy.
type RegimeReader interface {
	// LatestConfidence returns the regime confidence for instrument, ok=false when absent or stale.
	LatestConfidence(instrument string) (float64, bool)
	// LatestReport returns the latest report, nil when absent or stale.
	LatestReport() *models.MarketAnalysisReport
}

// Clock abstracts wall-clock reads so TTL and staleness checks can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
