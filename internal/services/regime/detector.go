// Package regime detects bull-run conditions per instrument, keeps a bounded
// detection history and builds cross-sectional market reports.
package regime

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/service/cache"
	"SignalDesk/internal/services/indicators"
	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/util"
)

const (
	minBars    = 50
	cacheTTL   = 5 * time.Minute
	historyCap = 10

	// stateValidity bounds how old a persisted stop-loss state may be when read back.
	stateValidity = 24 * time.Hour
	loadTimeout   = 5 * time.Second

	LabelInsufficientData = "Insufficient data"
	LabelNever            = "Never"
)

var (
	_ domsvc.RegimeDetector = (*Detector)(nil)
	_ domsvc.RegimeReader   = (*Detector)(nil)
)

type Option func(*Detector)

func WithClock(c domsvc.Clock) Option {
	return func(d *Detector) {
		if c != nil {
			d.clock = c
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(d *Detector) {
		if m != nil {
			d.metrics = m
		}
	}
}

// Detector scores bull-run factors, caches assessments for cacheTTL and
// persists its history, latest report and stop-loss state to a StateStore.
// Persistence failures are logged and counted, never returned.
type Detector struct {
	mu sync.Mutex

	store   repository.StateStore
	clock   domsvc.Clock
	log     *logger.Logger
	metrics repository.Metrics

	assessments *cache.TTLCache[models.RegimeAssessment]
	history     []models.DetectionRecord
	report      *models.MarketAnalysisReport
	stopLoss    *models.StopLossState
}

// NewDetector builds a detector and loads any previously persisted state.
// A failed load leaves the corresponding state empty.
func NewDetector(store repository.StateStore, opts ...Option) *Detector {
	d := &Detector{
		store:   store,
		clock:   domsvc.SystemClock{},
		log:     logger.Nop(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.assessments = cache.NewTTLCache[models.RegimeAssessment](cacheTTL, d.clock.Now)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	d.loadState(ctx)
	return d
}

func (d *Detector) loadState(ctx context.Context) {
	var history []models.DetectionRecord
	if d.load(ctx, repository.KeyDetectionHistory, &history) {
		if len(history) > historyCap {
			history = history[len(history)-historyCap:]
		}
		d.history = history
	}

	var report models.MarketAnalysisReport
	if d.load(ctx, repository.KeyMarketReport, &report) {
		d.report = &report
	}

	var state models.StopLossState
	if d.load(ctx, repository.KeyStopLossState, &state) {
		d.stopLoss = &state
	}

	d.log.Info("regime state loaded",
		logger.Int("history", len(d.history)),
		logger.Bool("report", d.report != nil),
		logger.Bool("stop_loss_state", d.stopLoss != nil),
	)
}

func (d *Detector) load(ctx context.Context, key string, dest any) bool {
	if d.store == nil {
		return false
	}
	err := d.store.Load(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrStateNotFound) {
		d.metrics.RecordPersistError(key, "load")
		d.log.Warn("failed to load regime state", logger.String("key", key), logger.Error(err))
	}
	return false
}

func (d *Detector) save(ctx context.Context, key string, value any) {
	if d.store == nil {
		return
	}
	if err := d.store.Save(ctx, key, value); err != nil {
		d.metrics.RecordPersistError(key, "save")
		d.log.Error("failed to persist regime state", logger.String("key", key), logger.Error(err))
	}
}

// AnalyzeMarket scores the instrument. Assessments are cached per instrument
// for five minutes; a cache hit has no side effects.
func (d *Detector) AnalyzeMarket(ctx context.Context, bars []models.Bar, book *models.OrderBook, instrument string) models.RegimeAssessment {
	if !indicators.Usable(bars, minBars) {
		return models.RegimeAssessment{
			StopLossPercent:   defaultStopLoss,
			LastDetectedLabel: LabelInsufficientData,
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.assessments.Get(instrument); ok {
		return withFactorsCopy(cached)
	}

	start := time.Now()
	factors := evaluate(bars, book)
	s := score(factors)
	conf := math.Min(s, maxConfidence)
	now := d.clock.Now()

	a := models.RegimeAssessment{
		IsBullRun:       s > bullRunThreshold,
		Confidence:      conf,
		StopLossPercent: defaultStopLoss,
		Score:           s,
		Factors:         factors,
	}

	if a.IsBullRun {
		a.StopLossPercent = stopLossPercent(indicators.Volatility(bars, volatilityPeriod), conf)
		d.appendHistory(ctx, models.DetectionRecord{
			ID:              uuid.NewString(),
			Instrument:      instrument,
			Timestamp:       now.UnixMilli(),
			Confidence:      conf,
			StopLossPercent: a.StopLossPercent,
			Outcome:         models.OutcomePending,
		})
		a.LastDetectedLabel = util.FormatElapsed(0)
	} else {
		a.LastDetectedLabel = d.lastDetectedLabel(now)
	}

	d.stopLoss = &models.StopLossState{Instrument: instrument, Confidence: conf, Timestamp: now.UnixMilli()}
	d.save(ctx, repository.KeyStopLossState, d.stopLoss)

	d.assessments.Set(instrument, a)
	d.metrics.RecordRegime(instrument, s, a.IsBullRun)
	d.metrics.RecordLatency("regime_analyze", time.Since(start).Seconds())
	d.log.Debug("regime assessed",
		logger.String("instrument", instrument),
		logger.Float64("score", s),
		logger.Bool("bull_run", a.IsBullRun),
		logger.Float64("stop_loss_pct", a.StopLossPercent),
	)
	return withFactorsCopy(a)
}

func withFactorsCopy(a models.RegimeAssessment) models.RegimeAssessment {
	if a.Factors == nil {
		return a
	}
	f := make(map[string]bool, len(a.Factors))
	for k, v := range a.Factors {
		f[k] = v
	}
	a.Factors = f
	return a
}

// appendHistory keeps at most historyCap records, dropping the oldest. Caller holds mu.
func (d *Detector) appendHistory(ctx context.Context, rec models.DetectionRecord) {
	d.history = append(d.history, rec)
	if len(d.history) > historyCap {
		d.history = append([]models.DetectionRecord(nil), d.history[len(d.history)-historyCap:]...)
	}
	d.save(ctx, repository.KeyDetectionHistory, d.history)
}

func (d *Detector) lastDetectedLabel(now time.Time) string {
	if len(d.history) == 0 {
		return LabelNever
	}
	last := d.history[len(d.history)-1]
	return util.FormatElapsed(now.Sub(time.UnixMilli(last.Timestamp)))
}

// History returns a copy of the detection history, oldest first.
func (d *Detector) History() []models.DetectionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.DetectionRecord(nil), d.history...)
}

// RecordOutcome marks a detection as successful or failed. It reports whether
// the id was found.
func (d *Detector) RecordOutcome(ctx context.Context, id string, success bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.history {
		if d.history[i].ID != id {
			continue
		}
		d.history[i].Outcome = models.OutcomeFailure
		if success {
			d.history[i].Outcome = models.OutcomeSuccess
		}
		d.save(ctx, repository.KeyDetectionHistory, d.history)
		return true
	}
	return false
}

// ClearHistory drops every detection record.
func (d *Detector) ClearHistory(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = nil
	d.save(ctx, repository.KeyDetectionHistory, []models.DetectionRecord{})
}

// SuccessRate is the share of successful detections among resolved ones,
// together with the number resolved.
func (d *Detector) SuccessRate() (float64, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var resolved, wins int
	for _, r := range d.history {
		switch r.Outcome {
		case models.OutcomeSuccess:
			wins++
			resolved++
		case models.OutcomeFailure:
			resolved++
		}
	}
	if resolved == 0 {
		return 0, 0
	}
	return float64(wins) / float64(resolved), resolved
}

// LatestConfidence returns the regime confidence of instrument: its cached
// assessment while inside the cache TTL, otherwise the persisted stop-loss
// state when it belongs to instrument and is less than a day old.
func (d *Detector) LatestConfidence(instrument string) (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a, ok := d.assessments.Get(instrument); ok {
		return a.Confidence, true
	}
	if d.stopLoss == nil || d.stopLoss.Instrument != instrument {
		return 0, false
	}
	if d.clock.Now().Sub(time.UnixMilli(d.stopLoss.Timestamp)) > stateValidity {
		return 0, false
	}
	return d.stopLoss.Confidence, true
}

// LatestReport returns a deep copy of the latest report, nil when absent or stale.
func (d *Detector) LatestReport() *models.MarketAnalysisReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.report.Stale(d.clock.Now()) {
		return nil
	}
	r := cloneReport(*d.report)
	return &r
}

func cloneReport(r models.MarketAnalysisReport) models.MarketAnalysisReport {
	r.Narratives = slices.Clone(r.Narratives)
	r.TierOneInstruments = slices.Clone(r.TierOneInstruments)
	r.TierTwoInstruments = slices.Clone(r.TierTwoInstruments)
	r.TierThreeInstruments = slices.Clone(r.TierThreeInstruments)
	r.WhaleBuying = slices.Clone(r.WhaleBuying)
	r.WhaleSelling = slices.Clone(r.WhaleSelling)
	r.WhaleNeutral = slices.Clone(r.WhaleNeutral)
	r.BreakoutInstruments = slices.Clone(r.BreakoutInstruments)
	return r
}

// InvalidateCache drops the cached assessment for instrument, or all of them
// when instrument is empty.
func (d *Detector) InvalidateCache(instrument string) {
	if instrument == "" {
		d.assessments.Clear()
		return
	}
	d.assessments.Delete(instrument)
}

// GenerateMarketAnalysisReport builds, stores and persists a report from snapshots.
func (d *Detector) GenerateMarketAnalysisReport(ctx context.Context, snapshots []models.InstrumentSnapshot) models.MarketAnalysisReport {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	report := BuildReport(snapshots, d.clock.Now())
	stored := cloneReport(report)
	d.report = &stored
	d.save(ctx, repository.KeyMarketReport, d.report)

	d.metrics.RecordLatency("regime_report", time.Since(start).Seconds())
	d.log.Info("market report generated",
		logger.String("sentiment", string(report.Sentiment)),
		logger.Float64("sentiment_score", report.SentimentScore),
		logger.Strings("tier_one", report.TierOneInstruments),
		logger.Int("narratives", len(report.Narratives)),
	)
	return report
}
