package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resource-dashboard/internal/util"
)

// Config controls session behavior.
type Config struct {
	RefreshInterval time.Duration
	TTL             time.Duration
	MaxNameLength   int
	Clock           util.Clock
}

const (
	DefaultRefreshInterval = 50 * time.Millisecond
	DefaultTTL             = 12 * time.Hour
	DefaultMaxNameLength   = 100
)

func (c Config) withDefaults() Config {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = DefaultMaxNameLength
	}
	if c.Clock == nil {
		c.Clock = util.SystemClock{}
	}
	return c
}

// Manager owns every live session, keyed by id.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Get returns the session for id and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// Create registers a new session with a fresh id.
func (m *Manager) Create() *Session {
	sess := newSession(uuid.New().String(), m.cfg)
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	total := len(m.sessions)
	m.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"session":  sess.ID,
		"sessions": total,
	}).Info("session created")
	return sess
}

// GetOrCreate returns the session for id, creating one when id is unknown.
// The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if sess, ok := m.Get(id); ok {
		return sess, false
	}
	return m.Create(), true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict ends sessions idle for longer than the TTL and returns how many
// were removed. A session with an attached stream or a running stopwatch
// is never idle.
func (m *Manager) Evict() int {
	cutoff := m.cfg.Clock.Now().Add(-m.cfg.TTL)

	var expired []*Session
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.active() {
			continue
		}
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		logrus.WithField("session", sess.ID).Info("session evicted")
	}
	return len(expired)
}

// Run evicts idle sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	every := m.cfg.TTL / 4
	if every > 10*time.Minute {
		every = 10 * time.Minute
	}
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Evict(); n > 0 {
				logrus.WithField("evicted", n).Debug("session sweep")
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
