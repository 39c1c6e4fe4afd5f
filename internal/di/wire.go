//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

var engineSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvidePrometheusRegistry,
	ProvideMetrics,

	// Persistence
	ProvideCache,
	ProvideStateStore,
	ProvideClickHouseClient,
	ProvideBarSource,
	ProvideSignalJournal,

	// Engine
	ProvideDetector,
	ProvideStrategyRegistry,
	ProvideEngineSettings,
	ProvideSignalEngine,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		engineSet,
		ProvideStatusHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeEngine wires the signal engine alone for one-shot commands.
func InitializeEngine(cfg *config.Config) (*usecase.SignalEngine, func(), error) {
	wire.Build(engineSet)
	return nil, nil, nil
}
