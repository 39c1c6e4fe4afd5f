// Package strategy provides the built-in signal strategies and a registry that
// resolves strategy identifiers to instances.
package strategy

import (
	"sort"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/indicators"
)

// ID identifies a built-in strategy.
type ID string

const (
	IDMACrossover      ID = "ma_crossover"
	IDRSIOscillator    ID = "rsi_oscillator"
	IDBollingerBands   ID = "bollinger_bands"
	IDAdaptiveMomentum ID = "adaptive_momentum"
	IDDynamicStopLoss  ID = "dynamic_stop_loss"
)

// DefaultID is what Resolve hands out for an unknown identifier.
const DefaultID = IDMACrossover

// Registry holds the strategy set keyed by ID.
type Registry struct {
	strategies map[ID]domsvc.Strategy
}

// NewRegistry builds all built-in strategies. regime feeds the dynamic
// stop-loss strategy and may be nil.
func NewRegistry(regime domsvc.RegimeReader) *Registry {
	r := &Registry{strategies: make(map[ID]domsvc.Strategy)}
	r.Register(IDMACrossover, NewMACrossover())
	r.Register(IDRSIOscillator, NewRSIOscillator())
	r.Register(IDBollingerBands, NewBollingerBands())
	r.Register(IDAdaptiveMomentum, NewAdaptiveMomentum())
	r.Register(IDDynamicStopLoss, NewDynamicStopLoss(regime))
	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(id ID, s domsvc.Strategy) {
	r.strategies[id] = s
}

// Get looks up a strategy by identifier. The second return value reports whether it was found.
func (r *Registry) Get(id string) (domsvc.Strategy, bool) {
	s, ok := r.strategies[ID(id)]
	return s, ok
}

// Resolve returns the strategy for id. Unknown identifiers resolve to the
// MA-crossover strategy; this is the intended default, not an error.
func (r *Registry) Resolve(id string) domsvc.Strategy {
	if s, ok := r.Get(id); ok {
		return s
	}
	return r.strategies[DefaultID]
}

// List returns the sorted identifiers of all registered strategies.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}

func newSignal(action models.Action, confidence float64, reason string) models.Signal {
	return models.Signal{
		Action:     action,
		Confidence: indicators.Clamp(confidence, 0, 1),
		Reason:     reason,
	}
}
