// Package session provides in-process cookie sessions. A session carries an
// optional authenticated user id and anchors the anonymous upstream quota;
// both live exactly as long as the session does.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is a snapshot of one caller session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	expiresAt time.Time
}

// Authenticated reports whether a user identity is bound to the session.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Manager owns all live sessions. Expired sessions are destroyed lazily on
// access and by a janitor goroutine; every destruction fires the OnExpire
// hook so dependent per-session state (quota counters) can be dropped.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	onExpire func(id string)
	stop     chan struct{}
	stopOnce sync.Once
	log      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// janitorInterval is how often expired sessions are swept.
const janitorInterval = time.Minute

// NewManager creates a manager whose sessions live for ttl and starts the
// sweep goroutine. Call Close to stop it.
func NewManager(ttl time.Duration, log zerolog.Logger) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
		log:      log.With().Str("module", "session").Logger(),
		now:      time.Now,
	}
	go m.janitor()
	return m
}

// OnExpire registers the hook fired whenever a session is destroyed.
func (m *Manager) OnExpire(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// New creates a fresh anonymous session.
func (m *Manager) New() Session {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		expiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return *s
}

// Get returns a snapshot of the session, destroying it first if expired.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, false
	}
	if m.now().After(s.expiresAt) {
		delete(m.sessions, id)
		hook := m.onExpire
		m.mu.Unlock()
		if hook != nil {
			hook(id)
		}
		return Session{}, false
	}
	snapshot := *s
	m.mu.Unlock()
	return snapshot, true
}

// Authenticate binds a user identity to an existing session.
func (m *Manager) Authenticate(id, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.UserID = userID
	}
}

// Destroy removes a session immediately and fires the expiry hook.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if ok && hook != nil {
		hook(id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the janitor goroutine.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	hook := m.onExpire
	m.mu.Unlock()

	if len(expired) > 0 {
		m.log.Debug().Int("count", len(expired)).Msg("Swept expired sessions")
	}
	if hook != nil {
		for _, id := range expired {
			hook(id)
		}
	}
}
