package core

import "time"

// Clock measures wall time for the frame loop. Non-started clocks ignore Update.
type Clock struct {
	startTime time.Time
	lastTick  time.Time
	elapsed   float64
	delta     float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Start resets elapsed time and begins ticking.
func (c *Clock) Start() {
	now := time.Now()
	c.startTime = now
	c.lastTick = now
	c.elapsed = 0
	c.delta = 0
}

// Update advances the clock. Call once per frame, before reading Delta.
func (c *Clock) Update() {
	if c.startTime.IsZero() {
		return
	}
	now := time.Now()
	c.elapsed = now.Sub(c.startTime).Seconds()
	c.delta = now.Sub(c.lastTick).Seconds()
	c.lastTick = now
}

// Stop halts the clock without resetting elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

// Elapsed returns seconds since Start.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns seconds between the two most recent Updates.
func (c *Clock) Delta() float64 {
	return c.delta
}
