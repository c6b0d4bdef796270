package clock

import "sync/atomic"

// Fake is a manually-advanced Clock for deterministic tests of timeout
// arming/cancellation without real sleeps.
type Fake struct {
	now atomic.Int64
}

// NewFake returns a Fake clock starting at tick 0.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Now() Tick {
	return Tick(f.now.Load())
}

// Advance moves the clock forward by delta nanoseconds and returns the
// new tick.
func (f *Fake) Advance(delta int64) Tick {
	return Tick(f.now.Add(delta))
}
