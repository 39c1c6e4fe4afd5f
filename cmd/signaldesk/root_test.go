package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategiesCommandListsRegistry(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"strategies"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t,
		"  adaptive_momentum\n  bollinger_bands\n  dynamic_stop_loss\n* ma_crossover\n  rsi_oscillator\n",
		out.String())
}

func TestRunFailsOnMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", "/nonexistent/config.yaml", "--env", ""})
	assert.Error(t, root.ExecuteContext(context.Background()))
}
