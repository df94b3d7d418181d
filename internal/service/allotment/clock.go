package allotment

import "time"

// turnClock is the single outstanding deadline timer of a turn.
type turnClock struct {
	timer *time.Timer
}

// armClock schedules fire after d.
func armClock(d time.Duration, fire func()) *turnClock {
	return &turnClock{timer: time.AfterFunc(d, fire)}
}

// disarm stops the clock and reports whether it had not fired yet.
// A callback that already started must still check its turn sequence.
func (c *turnClock) disarm() bool {
	if c == nil || c.timer == nil {
		return false
	}

	return c.timer.Stop()
}
