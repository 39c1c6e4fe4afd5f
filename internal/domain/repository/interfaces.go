package repository

import (
	"context"
	"errors"

	"SignalDesk/internal/domain/models"
)

// ErrStateNotFound is returned by StateStore.Load when nothing is stored under the key.
var ErrStateNotFound = errors.New("state: key not found")

// Persisted snapshot keys.
const (
	KeyDetectionHistory = "regime_detection_history"
	KeyMarketReport     = "market_analysis_report"
	KeyStopLossState    = "dynamic_stop_loss_state"
)

// StateStore is the key-value blob store the regime detector persists its state to.
// Values must round-trip losslessly.
type StateStore interface {
	Load(ctx context.Context, key string, dest any) error
	Save(ctx context.Context, key string, value any) error
}

// BarSource supplies bar series and cross-sectional snapshots to the host loop.
type BarSource interface {
	GetLatestBars(ctx context.Context, instrument string, n int, tf Timeframe) ([]models.Bar, error)
	GetLatestSnapshots(ctx context.Context, limit int) ([]models.InstrumentSnapshot, error)
}

// SignalJournal appends evaluated signals for later audit.
type SignalJournal interface {
	Append(ctx context.Context, records []models.SignalRecord) error
}

// OrderBookSource supplies order book snapshots. Optional for the host loop.
type OrderBookSource interface {
	GetOrderBook(ctx context.Context, instrument string) (*models.OrderBook, error)
}

// Metrics receives engine measurements. Implementations must be safe for concurrent use.
type Metrics interface {
	RecordSignal(strategy, instrument string, action models.Action, confidence float64)
	RecordRegime(instrument string, score float64, bull bool)
	RecordPersistError(key, op string)
	RecordLatency(op string, seconds float64)
}
