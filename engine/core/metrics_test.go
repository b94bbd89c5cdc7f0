package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCountersWorkWithoutInitialize(t *testing.T) {
	// The counters lazily initialize, so callers outside the engine loop
	// are safe before MetricsInitialize ever runs.
	assert.NotPanics(t, func() { MetricsResetDraws() })

	MetricsCountDraw()
	MetricsCountDraw()
	assert.EqualValues(t, 2, MetricsDrawCalls())

	MetricsResetDraws()
	assert.EqualValues(t, 0, MetricsDrawCalls())
}

func TestMetricsUpdateAccumulatesFPS(t *testing.T) {
	assert.NoError(t, MetricsInitialize())

	// 70 frames at ~16ms crosses the one-second accumulator once.
	for i := 0; i < 70; i++ {
		MetricsUpdate(0.016)
	}
	assert.Greater(t, MetricsFPS(), 0.0)
	assert.InDelta(t, 16, MetricsFrameTime(), 1)
}
