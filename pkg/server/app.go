package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// Engine is the work the host loop drives.
type Engine interface {
	Tick(ctx context.Context) ([]usecase.Evaluation, error)
	Report(ctx context.Context) (models.MarketAnalysisReport, error)
}

// Intervals are the host loop cadences.
type Intervals struct {
	Tick   time.Duration
	Report time.Duration
}

// App encapsulates the entire application lifecycle.
type App struct {
	engine     Engine
	intervals  Intervals
	httpServer *xhttp.Server
	closers    []io.Closer
	l          *applogger.Logger
}

// New creates a new App. httpServer may be nil when the ops endpoint is disabled.
func New(engine Engine, intervals Intervals, httpServer *xhttp.Server, l *applogger.Logger, closers ...io.Closer) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if intervals.Tick <= 0 {
		intervals.Tick = time.Minute
	}
	if intervals.Report <= 0 {
		intervals.Report = time.Hour
	}
	return &App{
		engine:     engine,
		intervals:  intervals,
		httpServer: httpServer,
		closers:    closers,
		l:          l,
	}
}

// Run starts the ops server and the evaluation loop and blocks until ctx
// is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	a.l.Info("signal loop started",
		applogger.Duration("tick_interval_ms", a.intervals.Tick),
		applogger.Duration("report_interval_ms", a.intervals.Report),
	)
	a.loop(ctx)

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) loop(ctx context.Context) {
	// report first so tier-aware strategies see tiers on the first tick
	a.report(ctx)
	a.tick(ctx)

	ticks := time.NewTicker(a.intervals.Tick)
	defer ticks.Stop()
	reports := time.NewTicker(a.intervals.Report)
	defer reports.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks.C:
			a.tick(ctx)
		case <-reports.C:
			a.report(ctx)
		}
	}
}

func (a *App) tick(ctx context.Context) {
	evs, err := a.engine.Tick(ctx)
	if err != nil {
		a.l.Warn("tick finished with errors", applogger.Int("evaluated", len(evs)), applogger.Error(err))
		return
	}
	a.l.Debug("tick finished", applogger.Int("evaluated", len(evs)))
}

func (a *App) report(ctx context.Context) {
	if _, err := a.engine.Report(ctx); err != nil {
		a.l.Warn("market report failed", applogger.Error(err))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
