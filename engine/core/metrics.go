package core

import "sync"

const frameAVGCount uint8 = 30

type MetricsState struct {
	frameAVGCounter    uint8
	msTimes            [frameAVGCount]float64
	msAVG              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	drawCalls          uint32
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

// metrics lazily initializes the singleton so counters are safe to touch
// even when the engine loop never ran MetricsInitialize.
func metrics() *MetricsState {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{}
	})
	return metricsState
}

func MetricsInitialize() error {
	metrics()
	return nil
}

// MetricsUpdate feeds one frame's elapsed time (seconds) into the rolling
// averages. Call once per frame.
func MetricsUpdate(frameElapsedTime float64) {
	m := metrics()
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == frameAVGCount-1 {
		sum := 0.0
		for i := uint8(0); i < frameAVGCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAVG = sum / float64(frameAVGCount)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= frameAVGCount

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.frames++
}

// MetricsCountDraw tallies one draw call for the current frame.
func MetricsCountDraw() {
	metrics().drawCalls++
}

// MetricsResetDraws clears the per-frame draw counter. Call at frame start.
func MetricsResetDraws() {
	metrics().drawCalls = 0
}

func MetricsDrawCalls() uint32 {
	return metrics().drawCalls
}

func MetricsFPS() float64 {
	return metrics().fps
}

func MetricsFrameTime() float64 {
	return metrics().msAVG
}

func MetricsFrame() (float64, float64) {
	m := metrics()
	return m.fps, m.msAVG
}
