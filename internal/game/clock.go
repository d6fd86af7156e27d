package game

// SimClock is the single monotonic time base for every scheduled time in the
// world. It only advances through Advance, and not at all while paused.
type SimClock struct {
	now      float64
	maxDelta float64
	paused   bool
	steps    uint64
}

// NewSimClock creates a clock at t=0 that clamps steps to maxDelta
func NewSimClock(maxDelta float64) *SimClock {
	return &SimClock{maxDelta: maxDelta}
}

// Advance moves time forward by dt clamped to [0, maxDelta] and returns the
// step actually taken. Returns 0 while paused.
func (c *SimClock) Advance(dt float64) float64 {
	if c.paused {
		return 0
	}
	if dt < 0 || dt != dt {
		dt = 0
	}
	if dt > c.maxDelta {
		dt = c.maxDelta
	}
	c.now += dt
	c.steps++
	return dt
}

// Now returns the current sim time in seconds
func (c *SimClock) Now() float64 {
	return c.now
}

// Steps returns how many unpaused steps have run
func (c *SimClock) Steps() uint64 {
	return c.steps
}

// Paused reports whether the clock is frozen
func (c *SimClock) Paused() bool {
	return c.paused
}

// SetPaused freezes or resumes the clock
func (c *SimClock) SetPaused(paused bool) {
	c.paused = paused
}

// Ready reports whether a scheduled time has been reached. A zero or past
// time means ready.
func (c *SimClock) Ready(at float64) bool {
	return c.now >= at
}
