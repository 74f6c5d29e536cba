package clock

import "math"

// Accumulator converts variable frame deltas into a count of fixed steps,
// carrying the remainder between calls.
type Accumulator struct {
	step        float64
	maxSubSteps int

	acc     float64
	dropped float64
}

// NewAccumulator returns an accumulator for fixed steps of size step.
// maxSubSteps <= 0 means no limit.
func NewAccumulator(step float64, maxSubSteps int) *Accumulator {
	return &Accumulator{step: step, maxSubSteps: maxSubSteps}
}

// Step returns the fixed step size.
func (a *Accumulator) Step() float64 {
	return a.step
}

// Advance adds dt and returns how many fixed steps are due. When a sub-step
// limit is set, time beyond the limit is discarded and counted by Dropped.
func (a *Accumulator) Advance(dt float64) int {
	if a.step <= 0 || dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0
	}
	a.acc += dt
	n := int(math.Floor(a.acc / a.step))
	if a.maxSubSteps > 0 && n > a.maxSubSteps {
		surplus := float64(n-a.maxSubSteps) * a.step
		a.dropped += surplus
		a.acc -= surplus
		n = a.maxSubSteps
	}
	a.acc -= float64(n) * a.step
	if a.acc < 0 {
		a.acc = 0
	}
	return n
}

// Remainder is the time carried into the next Advance.
func (a *Accumulator) Remainder() float64 {
	return a.acc
}

// Dropped is the total time discarded by the sub-step limit.
func (a *Accumulator) Dropped() float64 {
	return a.dropped
}

// Reset clears carried and dropped time.
func (a *Accumulator) Reset() {
	a.acc = 0
	a.dropped = 0
}
