// Package session keeps the server-side state bound to a browser session:
// the authenticated account email, the staged multi-step flow data and the
// OAuth state nonce. Everything is in-process; the portal is a single
// process by design.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
)

type Session struct {
	ID    string
	Email string // empty until login succeeds
	Flow  auth.Flow
	// OAuthState is the nonce round-tripped through the provider redirect.
	OAuthState string

	expiresAt time.Time
}

func (s *Session) Authenticated() bool {
	return s.Email != ""
}

type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh anonymous session.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		expiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session for id, sliding its expiry, or nil if the
// id is unknown or expired.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		return nil
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if now.After(s.expiresAt) {
		delete(m.sessions, id)
		return nil
	}
	s.expiresAt = now.Add(m.ttl)
	return s
}

// Destroy drops the session, clearing all transient state with it.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Prune removes expired sessions. Called opportunistically by the router's
// background sweep.
func (m *Manager) Prune() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, id)
		}
	}
}
