// Package clock supplies frame timing for the render loop and a fixed-step
// accumulator for the physics world.
package clock

import "time"

// State is the timing of one tick, in seconds.
type State struct {
	Elapsed float64
	Delta   float64
	Frame   uint64
}

// Clock measures elapsed and per-frame delta time against a time source.
// The first Tick after construction or Reset reports a zero delta.
type Clock struct {
	now func() time.Time

	started bool
	start   time.Time
	prev    time.Duration
	state   State
}

// New returns a clock reading from now, or time.Now when now is nil.
func New(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Reset forgets the baseline; the next Tick starts a new timeline at zero.
func (c *Clock) Reset() {
	c.started = false
	c.prev = 0
	c.state = State{}
}

// Tick samples the time source and returns the new state.
func (c *Clock) Tick() State {
	t := c.now()
	if !c.started {
		c.started = true
		c.start = t
		c.prev = 0
		c.state = State{Frame: 1}
		return c.state
	}

	elapsed := t.Sub(c.start)
	// time sources that step backwards must not produce negative deltas
	if elapsed < c.prev {
		elapsed = c.prev
	}
	delta := elapsed - c.prev
	c.prev = elapsed

	c.state = State{
		Elapsed: elapsed.Seconds(),
		Delta:   delta.Seconds(),
		Frame:   c.state.Frame + 1,
	}
	return c.state
}

// State returns the result of the last Tick.
func (c *Clock) State() State {
	return c.state
}
