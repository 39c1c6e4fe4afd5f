package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgcache "SignalDesk/pkg/cache"
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/logger"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestProvideEngineSettings(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Engine.Instruments = []string{" sol ", "btc"}
	cfg.Engine.Timeframe = "15m"
	cfg.Risk.Level = "high"
	cfg.Risk.MaxNotional = 2500

	s := ProvideEngineSettings(cfg)
	assert.Equal(t, []string{"SOL", "BTC"}, s.Instruments)
	assert.Equal(t, repository.TF15m, s.Timeframe)
	assert.Equal(t, models.RiskConfig{Level: models.RiskHigh, MaxNotional: 2500}, s.Risk)
	assert.Equal(t, 30*time.Second, s.TickTimeout)
}

func TestProvideCacheMemoryBackend(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Store.Backend = "memory"

	svc, cleanup, err := ProvideCache(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &pkgcache.MemoryCache{}, svc)

	store := ProvideStateStore(svc)
	require.NoError(t, store.Save(context.Background(), repository.KeyStopLossState, models.StopLossState{Confidence: 0.8, Timestamp: 1}))
	var got models.StopLossState
	require.NoError(t, store.Load(context.Background(), repository.KeyStopLossState, &got))
	assert.Equal(t, 0.8, got.Confidence)
}

func TestProvideDetectorAndRegistry(t *testing.T) {
	cfg := defaultConfig(t)
	svc, cleanup, err := ProvideCache(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	reg := ProvidePrometheusRegistry()
	det := ProvideDetector(ProvideStateStore(svc), ProvideMetrics(reg), logger.Nop())
	registry := ProvideStrategyRegistry(det)
	assert.Len(t, registry.List(), 5)

	_, ok := det.LatestConfidence("BTC")
	assert.False(t, ok)
}

func TestProvideHTTPServerDisabled(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Metrics.Enabled = false
	assert.Nil(t, ProvideHTTPServer(cfg, nil, ProvidePrometheusRegistry(), logger.Nop()))
}
