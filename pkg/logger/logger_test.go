package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel).With(String("component", "regime"))

	l.Info("assessed",
		String("instrument", "BTC"),
		Float64("confidence", 0.72),
		Bool("bull", true),
		Int("bars", 120),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "assessed", entry["message"])
	assert.Equal(t, "regime", entry["component"])
	assert.Equal(t, "BTC", entry["instrument"])
	assert.Equal(t, 0.72, entry["confidence"])
	assert.Equal(t, true, entry["bull"])
	assert.Equal(t, float64(120), entry["bars"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerDurationAndAny(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With(Strings("instruments", []string{"BTC", "ETH"}))

	l.Info("tick", Duration("took", 1500*time.Millisecond), Any("tiers", map[string]int{"BTC": 1}))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "BTC, ETH", entry["instruments"])
	assert.Equal(t, float64(1500), entry["took"])
	assert.Equal(t, map[string]interface{}{"BTC": float64(1)}, entry["tiers"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose", Output: "stdout"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("ignored", String("k", "v")) })
}
