package stopwatch

import (
	"fmt"
	"time"
)

// Phase is the observable state of a stopwatch.
type Phase string

const (
	// PhaseIdle means the watch was never started or was just reset.
	PhaseIdle Phase = "idle"

	// PhaseRunning means the watch is accumulating time.
	PhaseRunning Phase = "running"

	// PhasePaused means the watch was stopped after running.
	PhasePaused Phase = "paused"
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	return string(p)
}

// State is a pause-and-resume stopwatch. The zero value is an idle watch.
//
// State is not safe for concurrent use; callers serialize access.
type State struct {
	// StartTime marks the beginning of the current running interval, shifted
	// back by StopOffset. Zero when reset.
	StartTime time.Time
	// Elapsed is the frozen value displayed while not running.
	Elapsed time.Duration
	Running bool
	// StopOffset is the time accumulated before the last stop.
	StopOffset time.Duration
}

// Start begins or resumes timing. It reports false when the watch is
// already running.
func (s *State) Start(now time.Time) bool {
	if s.Running {
		return false
	}
	s.StartTime = now.Add(-s.StopOffset)
	s.Running = true
	return true
}

// Stop pauses the watch. It reports false when the watch is not running.
func (s *State) Stop(now time.Time) bool {
	if !s.Running {
		return false
	}
	s.StopOffset = now.Sub(s.StartTime)
	s.Elapsed = s.StopOffset
	s.Running = false
	return true
}

// Reset returns the watch to idle from any state. It reports whether
// anything changed.
func (s *State) Reset() bool {
	changed := *s != State{}
	*s = State{}
	return changed
}

// Phase derives the observable phase.
func (s State) Phase() Phase {
	switch {
	case s.Running:
		return PhaseRunning
	case !s.StartTime.IsZero():
		return PhasePaused
	default:
		return PhaseIdle
	}
}

// Current returns the time to display at now: live while running, frozen
// otherwise.
func (s State) Current(now time.Time) time.Duration {
	if !s.Running {
		return s.Elapsed
	}
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Display renders Current(now) as HH:MM:SS.ss.
func (s State) Display(now time.Time) string {
	return Format(s.Current(now))
}

// Format renders d as HH:MM:SS.ss. Hundredths are truncated so a display
// never shows 60.00 seconds. Negative durations render as zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	centis := int64(d / (10 * time.Millisecond))
	hours := centis / 360000
	centis -= hours * 360000
	minutes := centis / 6000
	centis -= minutes * 6000
	seconds := centis / 100
	centis -= seconds * 100
	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}
