package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
)

type countingEngine struct {
	ticks   atomic.Int32
	reports atomic.Int32
	tickErr error
}

func (e *countingEngine) Tick(context.Context) ([]usecase.Evaluation, error) {
	e.ticks.Add(1)
	return nil, e.tickErr
}

func (e *countingEngine) Report(context.Context) (models.MarketAnalysisReport, error) {
	e.reports.Add(1)
	return models.MarketAnalysisReport{}, nil
}

type closer struct{ closed atomic.Bool }

func (c *closer) Close() error {
	c.closed.Store(true)
	return nil
}

func TestRunTicksUntilCancelled(t *testing.T) {
	eng := &countingEngine{tickErr: errors.New("one instrument failed")}
	c := &closer{}
	app := New(eng, Intervals{Tick: 5 * time.Millisecond, Report: time.Hour}, nil, nil, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return eng.ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), eng.reports.Load())
	assert.True(t, c.closed.Load())
}

func TestNewDefaultsIntervals(t *testing.T) {
	app := New(&countingEngine{}, Intervals{}, nil, nil)
	assert.Equal(t, time.Minute, app.intervals.Tick)
	assert.Equal(t, time.Hour, app.intervals.Report)
}
