// Package session holds the PKCE verifier and anti-CSRF state for the duration of one
// authorization round-trip.
//
// A Store is scoped to exactly one browser session (or one terminal login) and holds at
// most one verifier/state pair: starting a new attempt overwrites the previous one.
// Server deployments keep many scopes in a keyed Backend and hand each request a Store
// bound to its session id via Scope.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoScope = errors.New("session: empty session id")

// AuthSession is the per-attempt PKCE record.
type AuthSession struct {
	Verifier string `json:"verifier"`
	State    string `json:"state"`
}

// Store is the capability passed to the authorization URL builder, the redirect handler
// and the token exchanger. Load* report ok=false when the value is absent or empty.
type Store interface {
	SaveVerifier(ctx context.Context, verifier string) error
	SaveState(ctx context.Context, state string) error
	LoadVerifier(ctx context.Context) (string, bool, error)
	LoadState(ctx context.Context) (string, bool, error)
}

// Backend persists AuthSessions keyed by session id. Get returns ok=false when the id is
// unknown or expired.
type Backend interface {
	Get(ctx context.Context, id string) (AuthSession, bool, error)
	Put(ctx context.Context, id string, s AuthSession, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Memory is a single-scope Store kept in process memory.
type Memory struct {
	mu      sync.RWMutex
	session AuthSession
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveVerifier(_ context.Context, verifier string) error {
	m.mu.Lock()
	m.session.Verifier = verifier
	m.mu.Unlock()
	return nil
}

func (m *Memory) SaveState(_ context.Context, state string) error {
	m.mu.Lock()
	m.session.State = state
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadVerifier(_ context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Verifier, m.session.Verifier != "", nil
}

func (m *Memory) LoadState(_ context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State, m.session.State != "", nil
}

// Scoped is a Store bound to one session id of a Backend. Every save refreshes the TTL.
type Scoped struct {
	backend Backend
	id      string
	ttl     time.Duration
}

var _ Store = (*Scoped)(nil)

// Scope returns a Store for the session id. ttl bounds how long an unfinished attempt is kept.
func Scope(backend Backend, id string, ttl time.Duration) *Scoped {
	return &Scoped{backend: backend, id: id, ttl: ttl}
}

func (s *Scoped) SaveVerifier(ctx context.Context, verifier string) error {
	return s.update(ctx, func(a *AuthSession) { a.Verifier = verifier })
}

func (s *Scoped) SaveState(ctx context.Context, state string) error {
	return s.update(ctx, func(a *AuthSession) { a.State = state })
}

func (s *Scoped) LoadVerifier(ctx context.Context) (string, bool, error) {
	a, err := s.load(ctx)
	if err != nil {
		return "", false, err
	}
	return a.Verifier, a.Verifier != "", nil
}

func (s *Scoped) LoadState(ctx context.Context) (string, bool, error) {
	a, err := s.load(ctx)
	if err != nil {
		return "", false, err
	}
	return a.State, a.State != "", nil
}

// Clear removes the scope's record (e.g. once the token exchange completes).
func (s *Scoped) Clear(ctx context.Context) error {
	if s.id == "" {
		return ErrNoScope
	}
	return s.backend.Delete(ctx, s.id)
}

func (s *Scoped) load(ctx context.Context) (AuthSession, error) {
	if s.id == "" {
		return AuthSession{}, ErrNoScope
	}
	a, _, err := s.backend.Get(ctx, s.id)
	return a, err
}

func (s *Scoped) update(ctx context.Context, fn func(*AuthSession)) error {
	a, err := s.load(ctx)
	if err != nil {
		return err
	}
	fn(&a)
	return s.backend.Put(ctx, s.id, a, s.ttl)
}
