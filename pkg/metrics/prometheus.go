package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

var _ repository.Metrics = (*Recorder)(nil)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal  *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	regimeScore   *prometheus.GaugeVec
	bullRun       *prometheus.GaugeVec
	persistErrors *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		signalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_signals_total",
				Help: "Signals emitted by strategy, instrument and action",
			},
			[]string{"strategy", "instrument", "action"},
		),
		confidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_signal_confidence",
				Help: "Confidence of the last signal per strategy and instrument",
			},
			[]string{"strategy", "instrument"},
		),
		regimeScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_regime_score",
				Help: "Last weighted bull-run score per instrument",
			},
			[]string{"instrument"},
		),
		bullRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_regime_bull_run",
				Help: "1 when the last assessment flagged a bull run",
			},
			[]string{"instrument"},
		),
		persistErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_persist_errors_total",
				Help: "State store failures by key and operation",
			},
			[]string{"key", "op"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(strategy, instrument string, action models.Action, confidence float64) {
	r.signalsTotal.WithLabelValues(strategy, instrument, string(action)).Inc()
	r.confidence.WithLabelValues(strategy, instrument).Set(confidence)
}

func (r *Recorder) RecordRegime(instrument string, score float64, bull bool) {
	r.regimeScore.WithLabelValues(instrument).Set(score)
	v := 0.0
	if bull {
		v = 1
	}
	r.bullRun.WithLabelValues(instrument).Set(v)
}

func (r *Recorder) RecordPersistError(key, op string) {
	r.persistErrors.WithLabelValues(key, op).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all metrics.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordSignal(string, string, models.Action, float64) {}
func (Nop) RecordRegime(string, float64, bool)                  {}
func (Nop) RecordPersistError(string, string)                   {}
func (Nop) RecordLatency(string, float64)                       {}
