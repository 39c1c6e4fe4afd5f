package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func buy(conf float64) models.Signal {
	return models.Signal{Action: models.ActionBuy, Confidence: conf, Reason: "test"}
}

func TestIsActionableThresholds(t *testing.T) {
	cases := []struct {
		level models.RiskLevel
		conf  float64
		want  bool
	}{
		{models.RiskLow, 0.7, false},
		{models.RiskLow, 0.71, true},
		{models.RiskMedium, 0.5, false},
		{models.RiskMedium, 0.51, true},
		{models.RiskHigh, 0.3, false},
		{models.RiskHigh, 0.31, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsActionable(buy(tc.conf), tc.level), "%s %.2f", tc.level, tc.conf)
	}

	assert.False(t, IsActionable(models.Signal{Action: models.ActionHold, Confidence: 0.99}, models.RiskHigh))
}

func TestSize(t *testing.T) {
	cfg := models.RiskConfig{Level: models.RiskMedium, MaxNotional: 10_000}

	p := Size(buy(0.8), cfg, 30_000)
	require.True(t, p.Actionable)
	// 10000 * 0.5 * 0.8 / 30000 = 0.133333333...
	assert.Equal(t, 0.13333333, p.Quantity)
	assert.InDelta(t, 4000, p.Notional, 0.01)

	p = Size(buy(0.8), models.RiskConfig{Level: models.RiskHigh, MaxNotional: 10_000}, 100)
	assert.Equal(t, 60.0, p.Quantity)
}

func TestSizeRejectsBadReferencePrice(t *testing.T) {
	cfg := models.RiskConfig{Level: models.RiskHigh, MaxNotional: 10_000}
	for _, price := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		p := Size(buy(0.9), cfg, price)
		assert.False(t, p.Actionable)
		assert.Zero(t, p.Quantity)
	}
}

func TestSizeBelowThreshold(t *testing.T) {
	p := Size(buy(0.4), models.RiskConfig{Level: models.RiskMedium, MaxNotional: 10_000}, 100)
	assert.False(t, p.Actionable)
	assert.Zero(t, p.Quantity)
	assert.Contains(t, p.Reason, "below medium-risk threshold")
}

func TestUnknownLevelFallsBackToMedium(t *testing.T) {
	assert.Equal(t, 0.5, Multiplier("reckless"))
	assert.Equal(t, 0.5, Threshold("reckless"))
}

func TestRiskConfigNormalize(t *testing.T) {
	cfg := models.RiskConfig{MaxNotional: 1000}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, models.RiskMedium, cfg.Level)

	bad := models.RiskConfig{Level: "reckless", MaxNotional: 1000}
	assert.Error(t, bad.Normalize())

	zero := models.RiskConfig{Level: models.RiskLow}
	assert.Error(t, zero.Normalize())
}
