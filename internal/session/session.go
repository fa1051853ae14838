package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"resource-dashboard/internal/stopwatch"
	"resource-dashboard/internal/util"
)

// ErrNameTooLong is returned when a name exceeds the configured limit.
var ErrNameTooLong = errors.New("name too long")

// Snapshot is a consistent read of a session at one instant.
type Snapshot struct {
	ID         string
	Name       string
	Greeting   string
	Phase      stopwatch.Phase
	Running    bool
	Display    string
	Elapsed    time.Duration
	StopOffset time.Duration
	StartedAt  time.Time
	Taken      time.Time
}

// Session holds one visitor's dashboard state: the name input, the
// stopwatch and the refresh task repainting its placeholders.
type Session struct {
	ID string

	clock    util.Clock
	interval time.Duration
	maxName  int
	notifier *Notifier

	mu       sync.Mutex
	name     string
	watch    stopwatch.State
	lastSeen time.Time
	cancel   context.CancelFunc
	closed   bool

	// pubMu orders broadcasts. It is acquired while mu is still held and
	// released after the broadcast, so frames reach sinks in state order.
	pubMu sync.Mutex
}

func newSession(id string, cfg Config) *Session {
	return &Session{
		ID:       id,
		clock:    cfg.Clock,
		interval: cfg.RefreshInterval,
		maxName:  cfg.MaxNameLength,
		notifier: NewNotifier(),
		lastSeen: cfg.Clock.Now(),
	}
}

// Greeting returns the sidebar greeting for name, or "" when name is blank.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("Welcome %s!", name)
}

// SetName stores the name input.
func (s *Session) SetName(name string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if s.maxName > 0 && utf8.RuneCountInString(name) > s.maxName {
		return s.Snapshot(), fmt.Errorf("%w: limit is %d characters", ErrNameTooLong, s.maxName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	return s.snapshotLocked(s.clock.Now()), nil
}

// Start begins or resumes the stopwatch and launches the refresh task.
func (s *Session) Start() Snapshot {
	s.mu.Lock()
	now := s.clock.Now()
	if s.closed || !s.watch.Start(now) {
		snap := s.snapshotLocked(now)
		s.mu.Unlock()
		return snap
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.refresh(ctx)
	logrus.WithField("session", s.ID).Debug("stopwatch refresh started")
	return s.publish(now)
}

// Stop pauses the stopwatch. The refresh task exits.
func (s *Session) Stop() Snapshot {
	s.mu.Lock()
	now := s.clock.Now()
	if !s.watch.Stop(now) {
		snap := s.snapshotLocked(now)
		s.mu.Unlock()
		return snap
	}
	s.stopRefreshLocked()
	return s.publish(now)
}

// Reset returns the stopwatch to idle from any state.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	now := s.clock.Now()
	if !s.watch.Reset() {
		snap := s.snapshotLocked(now)
		s.mu.Unlock()
		return snap
	}
	s.stopRefreshLocked()
	return s.publish(now)
}

// Surprise broadcasts a one-shot animation request. It holds no state.
func (s *Session) Surprise() Event {
	event := Event{
		Type:      EventSurprise,
		Animation: AnimationBalloons,
		Timestamp: s.clock.Now().UTC(),
	}
	s.pubMu.Lock()
	s.notifier.Broadcast(event)
	s.pubMu.Unlock()
	return event
}

// Attach sends the current frame to sink and subscribes it to later events.
func (s *Session) Attach(sink Sink) error {
	s.mu.Lock()
	frame := s.frameLocked(s.clock.Now())
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	if err := sink.Send(frame); err != nil {
		return err
	}
	s.notifier.Register(sink)
	return nil
}

// Detach unsubscribes and closes sink.
func (s *Session) Detach(sink Sink) {
	s.notifier.Unregister(sink)
}

// Listeners returns the number of attached placeholders.
func (s *Session) Listeners() int {
	return s.notifier.Len()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.clock.Now())
}

// Refreshing reports whether the refresh task is active.
func (s *Session) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

// active reports whether a placeholder is attached or the refresh task runs.
func (s *Session) active() bool {
	return s.notifier.Len() > 0 || s.Refreshing()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close ends the session: the refresh task stops and sinks are closed.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.stopRefreshLocked()
	s.mu.Unlock()
	s.notifier.CloseAll()
}

func (s *Session) refresh(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if ctx.Err() != nil || !s.watch.Running {
			s.mu.Unlock()
			return
		}
		s.publish(s.clock.Now())
	}
}

// publish broadcasts the frame for now. It must be called with mu held and
// releases it.
func (s *Session) publish(now time.Time) Snapshot {
	snap := s.snapshotLocked(now)
	frame := s.frameLocked(now)
	s.pubMu.Lock()
	s.mu.Unlock()
	s.notifier.Broadcast(frame)
	s.pubMu.Unlock()
	return snap
}

func (s *Session) stopRefreshLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	logrus.WithField("session", s.ID).Debug("stopwatch refresh stopped")
}

func (s *Session) frameLocked(now time.Time) Event {
	return Event{
		Type:      EventFrame,
		Display:   s.watch.Display(now),
		Phase:     s.watch.Phase(),
		Running:   s.watch.Running,
		Timestamp: now.UTC(),
	}
}

func (s *Session) snapshotLocked(now time.Time) Snapshot {
	return Snapshot{
		ID:         s.ID,
		Name:       s.name,
		Greeting:   Greeting(s.name),
		Phase:      s.watch.Phase(),
		Running:    s.watch.Running,
		Display:    s.watch.Display(now),
		Elapsed:    s.watch.Current(now),
		StopOffset: s.watch.StopOffset,
		StartedAt:  s.watch.StartTime,
		Taken:      now,
	}
}
