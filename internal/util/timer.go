package util

import "time"

// Timer is a lightweight helper to measure elapsed durations.
type Timer struct {
	clock Clock
	start time.Time
}

// StartTimer creates a new timer starting at the current system time.
func StartTimer() Timer {
	return StartTimerWith(SystemClock{})
}

// StartTimerWith creates a timer reading time from the supplied clock.
func StartTimerWith(clock Clock) Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return Timer{clock: clock, start: clock.Now()}
}

// Elapsed returns the duration since start.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() || t.clock == nil {
		return 0
	}
	return t.clock.Now().Sub(t.start)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
