package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/sizing"
	"SignalDesk/internal/services/strategy"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
)

// EngineSettings are the per-deployment knobs of the signal engine.
type EngineSettings struct {
	Strategy      string
	Instruments   []string
	Timeframe     domrepo.Timeframe
	BarLimit      int
	SnapshotLimit int
	TickTimeout   time.Duration
	Risk          models.RiskConfig
}

// Evaluation is the outcome of one instrument evaluation.
type Evaluation struct {
	Instrument  string                  `json:"instrument"`
	Strategy    string                  `json:"strategy"`
	Timeframe   string                  `json:"timeframe"`
	Bars        int                     `json:"bars"`
	Regime      models.RegimeAssessment `json:"regime"`
	Signal      models.Signal           `json:"signal"`
	Size        models.PositionSize     `json:"size"`
	EvaluatedAt int64                   `json:"evaluated_at"`
}

// Record converts the evaluation into a journal row.
func (e Evaluation) Record() models.SignalRecord {
	return models.SignalRecord{
		Timestamp:   e.EvaluatedAt,
		Instrument:  e.Instrument,
		Strategy:    e.Strategy,
		Signal:      e.Signal,
		RegimeScore: e.Regime.Score,
		IsBullRun:   e.Regime.IsBullRun,
		Size:        e.Size,
	}
}

// EngineOption configures SignalEngine.
type EngineOption func(*SignalEngine)

// WithOrderBooks attaches an order book source. Without one strategies see a nil book.
func WithOrderBooks(src domrepo.OrderBookSource) EngineOption {
	return func(e *SignalEngine) { e.books = src }
}

// WithJournal attaches a signal journal written after every tick.
func WithJournal(j domrepo.SignalJournal) EngineOption {
	return func(e *SignalEngine) { e.journal = j }
}

func WithEngineLogger(l *applogger.Logger) EngineOption {
	return func(e *SignalEngine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithEngineMetrics(m domrepo.Metrics) EngineOption {
	return func(e *SignalEngine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func WithEngineClock(c domsvc.Clock) EngineOption {
	return func(e *SignalEngine) {
		if c != nil {
			e.clock = c
		}
	}
}

// SignalEngine runs regime detection, the configured strategy and sizing for each instrument.
type SignalEngine struct {
	bars     domrepo.BarSource
	books    domrepo.OrderBookSource
	journal  domrepo.SignalJournal
	detector domsvc.RegimeDetector
	registry *strategy.Registry
	metrics  domrepo.Metrics
	log      *applogger.Logger
	clock    domsvc.Clock
	cfg      EngineSettings
}

func NewSignalEngine(
	bars domrepo.BarSource,
	detector domsvc.RegimeDetector,
	registry *strategy.Registry,
	cfg EngineSettings,
	opts ...EngineOption,
) *SignalEngine {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	if !domrepo.IsValidTimeframe(cfg.Timeframe) {
		cfg.Timeframe = domrepo.DefaultTimeframe()
	}
	e := &SignalEngine{
		bars:     bars,
		detector: detector,
		registry: registry,
		metrics:  metrics.Nop{},
		log:      applogger.Nop(),
		clock:    domsvc.SystemClock{},
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StrategyID is the identifier the configured strategy resolves to.
func (e *SignalEngine) StrategyID() string {
	if _, ok := e.registry.Get(e.cfg.Strategy); ok {
		return e.cfg.Strategy
	}
	return string(strategy.DefaultID)
}

// Instruments returns the configured instrument list.
func (e *SignalEngine) Instruments() []string {
	return append([]string(nil), e.cfg.Instruments...)
}

// Evaluate runs the full pipeline for one instrument.
func (e *SignalEngine) Evaluate(ctx context.Context, instrument string) (Evaluation, error) {
	start := time.Now()
	instrument = strings.ToUpper(strings.TrimSpace(instrument))
	if instrument == "" {
		return Evaluation{}, fmt.Errorf("instrument required")
	}

	bars, err := e.bars.GetLatestBars(ctx, instrument, e.cfg.BarLimit, e.cfg.Timeframe)
	if err != nil {
		return Evaluation{}, fmt.Errorf("bars %s: %w", instrument, err)
	}

	var book *models.OrderBook
	if e.books != nil {
		book, err = e.books.GetOrderBook(ctx, instrument)
		if err != nil {
			e.log.Warn("order book unavailable",
				applogger.String("instrument", instrument),
				applogger.Error(err),
			)
			book = nil
		}
	}

	assessment := e.detector.AnalyzeMarket(ctx, bars, book, instrument)

	id := e.StrategyID()
	sig := e.registry.Resolve(id).Analyze(bars, book, instrument)

	var ref float64
	if len(bars) > 0 {
		ref = bars[len(bars)-1].Close
	}
	size := sizing.Size(sig, e.cfg.Risk, ref)

	e.metrics.RecordSignal(id, instrument, sig.Action, sig.Confidence)
	e.metrics.RecordLatency("evaluate", time.Since(start).Seconds())

	ev := Evaluation{
		Instrument:  instrument,
		Strategy:    id,
		Timeframe:   string(e.cfg.Timeframe),
		Bars:        len(bars),
		Regime:      assessment,
		Signal:      sig,
		Size:        size,
		EvaluatedAt: e.clock.Now().UnixMilli(),
	}
	e.log.Info("signal evaluated",
		applogger.String("instrument", instrument),
		applogger.String("strategy", id),
		applogger.String("action", string(sig.Action)),
		applogger.Float64("confidence", sig.Confidence),
		applogger.String("reason", sig.Reason),
		applogger.Bool("bull_run", assessment.IsBullRun),
		applogger.Float64("regime_confidence", assessment.Confidence),
		applogger.Bool("actionable", size.Actionable),
		applogger.Float64("quantity", size.Quantity),
	)
	return ev, nil
}

// Tick evaluates every configured instrument under the tick timeout and
// journals the results. Per-instrument failures are joined; successful
// evaluations are still returned.
func (e *SignalEngine) Tick(ctx context.Context) ([]Evaluation, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.TickTimeout)
	defer cancel()

	type item struct {
		idx int
		ev  Evaluation
		err error
	}
	ch := make(chan item, len(e.cfg.Instruments))
	var wg sync.WaitGroup
	for i, inst := range e.cfg.Instruments {
		wg.Add(1)
		go func(i int, inst string) {
			defer wg.Done()
			ev, err := e.Evaluate(ctx, inst)
			ch <- item{idx: i, ev: ev, err: err}
		}(i, inst)
	}
	wg.Wait()
	close(ch)

	slots := make([]*Evaluation, len(e.cfg.Instruments))
	var errs []error
	for it := range ch {
		if it.err != nil {
			e.log.Error("evaluation failed", applogger.Error(it.err))
			errs = append(errs, it.err)
			continue
		}
		ev := it.ev
		slots[it.idx] = &ev
	}

	out := make([]Evaluation, 0, len(slots))
	records := make([]models.SignalRecord, 0, len(slots))
	for _, ev := range slots {
		if ev == nil {
			continue
		}
		out = append(out, *ev)
		records = append(records, ev.Record())
	}

	if e.journal != nil && len(records) > 0 {
		if err := e.journal.Append(ctx, records); err != nil {
			e.log.Error("signal journal append failed",
				applogger.Int("records", len(records)),
				applogger.Error(err),
			)
			e.metrics.RecordPersistError("signal_journal", "append")
		}
	}

	e.metrics.RecordLatency("tick", time.Since(start).Seconds())
	return out, errors.Join(errs...)
}

// Report builds a market analysis report from the latest snapshots.
func (e *SignalEngine) Report(ctx context.Context) (models.MarketAnalysisReport, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.TickTimeout)
	defer cancel()

	snaps, err := e.bars.GetLatestSnapshots(ctx, e.cfg.SnapshotLimit)
	if err != nil {
		return models.MarketAnalysisReport{}, fmt.Errorf("snapshots: %w", err)
	}
	report := e.detector.GenerateMarketAnalysisReport(ctx, snaps)
	e.metrics.RecordLatency("report", time.Since(start).Seconds())
	return report, nil
}
