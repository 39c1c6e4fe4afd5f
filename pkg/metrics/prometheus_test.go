package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"SignalDesk/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordSignal("ma_crossover", "BTC", models.ActionBuy, 0.7)
	r.RecordSignal("ma_crossover", "BTC", models.ActionBuy, 0.6)
	r.RecordRegime("BTC", 0.8, true)
	r.RecordPersistError("market_analysis_report", "save")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("ma_crossover", "BTC", "buy")))
	assert.Equal(t, 0.6, testutil.ToFloat64(r.confidence.WithLabelValues("ma_crossover", "BTC")))
	assert.Equal(t, 0.8, testutil.ToFloat64(r.regimeScore.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bullRun.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.persistErrors.WithLabelValues("market_analysis_report", "save")))
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
