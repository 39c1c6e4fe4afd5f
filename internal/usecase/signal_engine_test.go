package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	icache "SignalDesk/internal/service/cache"
	"SignalDesk/internal/services/regime"
	"SignalDesk/internal/services/strategy"
	pkgcache "SignalDesk/pkg/cache"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeBars struct {
	bars     map[string][]models.Bar
	errs     map[string]error
	snaps    []models.InstrumentSnapshot
	snapErr  error
	mu       sync.Mutex
	requests []int
}

func (f *fakeBars) GetLatestBars(_ context.Context, instrument string, n int, _ domrepo.Timeframe) ([]models.Bar, error) {
	f.mu.Lock()
	f.requests = append(f.requests, n)
	f.mu.Unlock()
	if err := f.errs[instrument]; err != nil {
		return nil, err
	}
	return f.bars[instrument], nil
}

func (f *fakeBars) GetLatestSnapshots(context.Context, int) ([]models.InstrumentSnapshot, error) {
	return f.snaps, f.snapErr
}

type fakeBooks struct{ err error }

func (f fakeBooks) GetOrderBook(context.Context, string) (*models.OrderBook, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrderBook{
		Bids: []models.Level{{Price: 99, Size: 10}},
		Asks: []models.Level{{Price: 101, Size: 1}},
	}, nil
}

type fakeJournal struct {
	records []models.SignalRecord
	err     error
}

func (f *fakeJournal) Append(_ context.Context, records []models.SignalRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, records...)
	return nil
}

type recordingMetrics struct {
	mu            sync.Mutex
	signals       map[string]int
	persistErrors map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{signals: map[string]int{}, persistErrors: map[string]int{}}
}

func (m *recordingMetrics) RecordSignal(strategy, instrument string, action models.Action, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[strategy+"/"+instrument+"/"+string(action)]++
}
func (m *recordingMetrics) RecordRegime(string, float64, bool) {}
func (m *recordingMetrics) RecordPersistError(key, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistErrors[key+"/"+op]++
}
func (m *recordingMetrics) RecordLatency(string, float64) {}

func uptrend(n int) []models.Bar {
	bars := make([]models.Bar, n)
	c := 100.0
	for i := range bars {
		open := c
		c *= 1.01
		bars[i] = models.Bar{
			Timestamp: int64(i) * 3_600_000,
			Open:      open,
			High:      math.Max(open, c) * 1.001,
			Low:       math.Min(open, c) * 0.999,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, src *fakeBars, strat string, opts ...EngineOption) (*SignalEngine, *regime.Detector) {
	t.Helper()
	clock := fixedClock{t: testNow}
	det := regime.NewDetector(icache.NewStateStore(pkgcache.NewMemoryCache()), regime.WithClock(clock))
	cfg := EngineSettings{
		Strategy:      strat,
		Instruments:   []string{"BTC", "ETH"},
		Timeframe:     domrepo.TF1h,
		BarLimit:      250,
		SnapshotLimit: 100,
		TickTimeout:   time.Second,
		Risk:          models.RiskConfig{Level: models.RiskMedium, MaxNotional: 1000},
	}
	opts = append([]EngineOption{WithEngineClock(clock)}, opts...)
	return NewSignalEngine(src, det, strategy.NewRegistry(det), cfg, opts...), det
}

func TestEvaluateUptrendBuysAndSizes(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(60)}}
	m := newRecordingMetrics()
	eng, _ := newEngine(t, src, "ma_crossover", WithEngineMetrics(m))

	ev, err := eng.Evaluate(context.Background(), " btc ")
	require.NoError(t, err)

	assert.Equal(t, "BTC", ev.Instrument)
	assert.Equal(t, "ma_crossover", ev.Strategy)
	assert.Equal(t, "1h", ev.Timeframe)
	assert.Equal(t, 60, ev.Bars)
	assert.Equal(t, testNow.UnixMilli(), ev.EvaluatedAt)
	assert.Equal(t, models.ActionBuy, ev.Signal.Action)
	assert.True(t, ev.Size.Actionable)
	assert.Greater(t, ev.Size.Quantity, 0.0)
	assert.LessOrEqual(t, ev.Size.Notional, 500.0)
	assert.Equal(t, 1, m.signals["ma_crossover/BTC/buy"])
	assert.Equal(t, []int{250}, src.requests)
}

func TestEvaluateUnknownStrategyFallsBack(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(60)}}
	eng, _ := newEngine(t, src, "martingale")

	assert.Equal(t, string(strategy.DefaultID), eng.StrategyID())
	ev, err := eng.Evaluate(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, string(strategy.DefaultID), ev.Strategy)
}

func TestEvaluateShortSeriesHolds(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(10)}}
	eng, _ := newEngine(t, src, "rsi_oscillator")

	ev, err := eng.Evaluate(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, models.ActionHold, ev.Signal.Action)
	assert.Equal(t, models.ReasonInsufficientData, ev.Signal.Reason)
	assert.False(t, ev.Size.Actionable)
	assert.Equal(t, regime.LabelInsufficientData, ev.Regime.LastDetectedLabel)
	assert.Equal(t, 2.0, ev.Regime.StopLossPercent)
}

func TestEvaluateRequiresInstrument(t *testing.T) {
	eng, _ := newEngine(t, &fakeBars{}, "")
	_, err := eng.Evaluate(context.Background(), "  ")
	assert.Error(t, err)
}

func TestEvaluateToleratesMissingOrderBook(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(60)}}
	eng, _ := newEngine(t, src, "", WithOrderBooks(fakeBooks{err: errors.New("book feed down")}))

	ev, err := eng.Evaluate(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, ev.Regime.Factors["bid_imbalance"])
}

func TestTickJournalsSuccessesAndJoinsErrors(t *testing.T) {
	boom := errors.New("clickhouse unavailable")
	src := &fakeBars{
		bars: map[string][]models.Bar{"BTC": uptrend(60)},
		errs: map[string]error{"ETH": boom},
	}
	journal := &fakeJournal{}
	eng, _ := newEngine(t, src, "ma_crossover", WithJournal(journal))

	evs, err := eng.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.Len(t, evs, 1)
	assert.Equal(t, "BTC", evs[0].Instrument)

	require.Len(t, journal.records, 1)
	rec := journal.records[0]
	assert.Equal(t, "BTC", rec.Instrument)
	assert.Equal(t, "ma_crossover", rec.Strategy)
	assert.Equal(t, evs[0].Signal, rec.Signal)
	assert.Equal(t, evs[0].Regime.Score, rec.RegimeScore)
}

func TestTickKeepsInstrumentOrder(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(60), "ETH": uptrend(55)}}
	eng, _ := newEngine(t, src, "bollinger_bands")

	evs, err := eng.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "BTC", evs[0].Instrument)
	assert.Equal(t, "ETH", evs[1].Instrument)
	assert.Equal(t, 55, evs[1].Bars)
}

func TestTickJournalFailureIsCounted(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"BTC": uptrend(60), "ETH": uptrend(60)}}
	m := newRecordingMetrics()
	eng, _ := newEngine(t, src, "", WithJournal(&fakeJournal{err: errors.New("insert failed")}), WithEngineMetrics(m))

	evs, err := eng.Tick(context.Background())
	require.NoError(t, err)
	assert.Len(t, evs, 2)
	assert.Equal(t, 1, m.persistErrors["signal_journal/append"])
}

func TestReportStoresLatestReport(t *testing.T) {
	src := &fakeBars{snaps: []models.InstrumentSnapshot{
		{ID: "bitcoin", Symbol: "btc", Price: 60000, MarketCap: 1.2e12, Change24h: 4, Volume24h: 3e10},
		{ID: "ethereum", Symbol: "eth", Price: 3000, MarketCap: 3.6e11, Change24h: 6, Volume24h: 1e10},
	}}
	eng, det := newEngine(t, src, "")

	report, err := eng.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testNow.UnixMilli(), report.GeneratedAt)
	require.NotNil(t, det.LatestReport())
	assert.Equal(t, report.Sentiment, det.LatestReport().Sentiment)
}

func TestReportPropagatesSnapshotError(t *testing.T) {
	boom := errors.New("snapshots table missing")
	eng, det := newEngine(t, &fakeBars{snapErr: boom}, "")

	_, err := eng.Report(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, det.LatestReport())
}
