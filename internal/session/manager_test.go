package session

import (
	"testing"
	"time"

	"resource-dashboard/internal/util"
)

func TestGetOrCreate(t *testing.T) {
	m := newTestManager(t, util.NewFakeClock(epoch))

	sess, created := m.GetOrCreate("")
	if !created || sess.ID == "" {
		t.Fatalf("expected new session got %+v created=%v", sess, created)
	}

	again, created := m.GetOrCreate(sess.ID)
	if created || again != sess {
		t.Fatalf("expected existing session")
	}

	other, created := m.GetOrCreate("unknown")
	if !created || other.ID == "unknown" {
		t.Fatalf("unknown id should create a session with a fresh id")
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 sessions got %d", m.Len())
	}
}

func TestEvictIdleSessions(t *testing.T) {
	clock := util.NewFakeClock(epoch)
	m := newTestManager(t, clock)

	idle := m.Create()
	recent := m.Create()

	clock.Advance(50 * time.Minute)
	if _, ok := m.Get(recent.ID); !ok {
		t.Fatalf("recent session missing")
	}
	clock.Advance(20 * time.Minute)

	if n := m.Evict(); n != 1 {
		t.Fatalf("expected 1 eviction got %d", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Fatalf("idle session survived eviction")
	}
	if _, ok := m.Get(recent.ID); !ok {
		t.Fatalf("recent session was evicted")
	}
}

func TestEvictSkipsConnectedSessions(t *testing.T) {
	clock := util.NewFakeClock(epoch)
	m := newTestManager(t, clock)

	sess := m.Create()
	sink := &recordingSink{}
	if err := sess.Attach(sink); err != nil {
		t.Fatalf("attach: %v", err)
	}
	sess.Start()

	clock.Advance(time.Hour + time.Second)
	if n := m.Evict(); n != 0 {
		t.Fatalf("expected no eviction got %d", n)
	}
	if sess.Listeners() != 1 || sink.isClosed() {
		t.Fatalf("connected stream was dropped")
	}
	if !sess.Snapshot().Running || !sess.Refreshing() {
		t.Fatalf("running stopwatch was stopped")
	}

	// Still running after the stream goes away.
	sess.Detach(sink)
	if n := m.Evict(); n != 0 {
		t.Fatalf("running session evicted")
	}

	sess.Stop()
	if n := m.Evict(); n != 1 {
		t.Fatalf("expected eviction once detached and stopped got %d", n)
	}
	if _, ok := m.Get(sess.ID); ok {
		t.Fatalf("session survived eviction")
	}
}

func TestEvictedSessionIgnoresStart(t *testing.T) {
	clock := util.NewFakeClock(epoch)
	m := newTestManager(t, clock)
	sess := m.Create()

	clock.Advance(2 * time.Hour)
	m.Evict()

	sess.Start()
	if sess.Refreshing() {
		t.Fatalf("closed session started a refresh task")
	}
}

func TestConfigDefaults(t *testing.T) {
	m := NewManager(Config{})
	cfg := m.Config()
	if cfg.RefreshInterval != DefaultRefreshInterval || cfg.TTL != DefaultTTL || cfg.MaxNameLength != DefaultMaxNameLength {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Clock == nil {
		t.Fatalf("expected default clock")
	}
}
