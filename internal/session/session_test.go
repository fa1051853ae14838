package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"resource-dashboard/internal/stopwatch"
	"resource-dashboard/internal/util"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
	fail   bool
}

func (r *recordingSink) Send(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broken pipe")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recordingSink) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func newTestManager(t *testing.T, clock util.Clock) *Manager {
	t.Helper()
	m := NewManager(Config{
		RefreshInterval: time.Millisecond,
		TTL:             time.Hour,
		MaxNameLength:   10,
		Clock:           clock,
	})
	t.Cleanup(m.Close)
	return m
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"Ada", "Welcome Ada!"},
		{"  Grace ", "Welcome Grace!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Greeting(tc.name); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestSetName(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))
	sess := m.Create()

	snap, err := sess.SetName(" Ada ")
	if err != nil {
		t.Fatalf("set name: %v", err)
	}
	if snap.Name != "Ada" || snap.Greeting != "Welcome Ada!" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	_, err = sess.SetName(strings.Repeat("x", 11))
	if !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong got %v", err)
	}
	if got := sess.Snapshot().Name; got != "Ada" {
		t.Fatalf("rejected name overwrote state: %q", got)
	}

	snap, err = sess.SetName("")
	if err != nil {
		t.Fatalf("clear name: %v", err)
	}
	if snap.Greeting != "" {
		t.Fatalf("expected no greeting got %q", snap.Greeting)
	}
}

func TestStopwatchTransitions(t *testing.T) {
	clock := util.NewFakeClock(epoch)
	m := newTestManager(t, clock)
	sess := m.Create()

	snap := sess.Start()
	if snap.Phase != stopwatch.PhaseRunning || !sess.Refreshing() {
		t.Fatalf("expected running with refresh got %+v", snap)
	}

	clock.Advance(2 * time.Second)
	snap = sess.Stop()
	if snap.Phase != stopwatch.PhasePaused || snap.StopOffset != 2*time.Second {
		t.Fatalf("unexpected paused snapshot %+v", snap)
	}
	if snap.Display != "00:00:02.00" {
		t.Fatalf("expected paused display 00:00:02.00 got %s", snap.Display)
	}
	if sess.Refreshing() {
		t.Fatalf("refresh still active after stop")
	}

	clock.Advance(time.Minute)
	sess.Start()
	clock.Advance(3 * time.Second)
	if got := sess.Snapshot().Elapsed; got != 5*time.Second {
		t.Fatalf("expected 5s accumulated got %s", got)
	}

	snap = sess.Reset()
	if snap.Phase != stopwatch.PhaseIdle || snap.Elapsed != 0 || snap.StopOffset != 0 || !snap.StartedAt.IsZero() {
		t.Fatalf("unexpected reset snapshot %+v", snap)
	}
	if sess.Refreshing() {
		t.Fatalf("refresh still active after reset")
	}
}

func TestRefreshPublishesUntilStopped(t *testing.T) {
	clock := util.NewFakeClock(epoch)
	m := newTestManager(t, clock)
	sess := m.Create()

	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}

	sess.Start()
	waitFor(t, func() bool { return len(sink.snapshot()) >= 5 })

	sess.Stop()
	stopped := len(sink.snapshot())
	last := sink.snapshot()[stopped-1]
	if last.Type != EventFrame || last.Phase != stopwatch.PhasePaused || last.Running {
		t.Fatalf("expected final paused frame got %+v", last)
	}

	time.Sleep(20 * time.Millisecond)
	if got := len(sink.snapshot()); got != stopped {
		t.Fatalf("frames kept arriving after stop: %d -> %d", stopped, got)
	}
}

func TestAttachSendsCurrentFrame(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))
	sess := m.Create()

	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}
	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event got %d", len(events))
	}
	if events[0].Display != "00:00:00.00" || events[0].Phase != stopwatch.PhaseIdle {
		t.Fatalf("unexpected initial frame %+v", events[0])
	}
	if sess.Listeners() != 1 {
		t.Fatalf("expected 1 listener got %d", sess.Listeners())
	}

	sess.Detach(sink)
	if sess.Listeners() != 0 || !sink.isClosed() {
		t.Fatalf("detach did not remove and close sink")
	}
}

func TestNoopTransitionsDoNotBroadcast(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))
	sess := m.Create()
	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}

	sess.Stop()
	sess.Reset()
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("expected only the attach frame got %d events", got)
	}
}

func TestSurpriseBroadcasts(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))
	sess := m.Create()
	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}

	event := sess.Surprise()
	if event.Animation != AnimationBalloons {
		t.Fatalf("expected balloons got %q", event.Animation)
	}
	events := sink.snapshot()
	if got := events[len(events)-1]; got.Type != EventSurprise {
		t.Fatalf("expected surprise event got %+v", got)
	}
	if sess.Snapshot().Phase != stopwatch.PhaseIdle {
		t.Fatalf("surprise changed stopwatch state")
	}
}

func TestFailingSinkIsDropped(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))
	sess := m.Create()
	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}

	sink.mu.Lock()
	sink.fail = true
	sink.mu.Unlock()

	sess.Surprise()
	if sess.Listeners() != 0 || !sink.isClosed() {
		t.Fatalf("failing sink was not dropped")
	}
}
