package session

import (
	"context"
	"sync"
	"time"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
)

type entry struct {
	token   string
	expires time.Time // zero: never
}

// MemoryStore keeps session bindings in process memory. Bindings are lost on
// restart, but quota consumed by a token stays in the review store.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]entry
}

var _ domain.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]entry{}}
}

func (m *MemoryStore) GetOrCreateToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrValidation
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.sessions[sessionID]; ok && (e.expires.IsZero() || now.Before(e.expires)) {
		observability.ObserveSession("memory", "reused")
		return e.token, nil
	}
	tok, err := NewToken()
	if err != nil {
		return "", err
	}
	e := entry{token: tok}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.sessions[sessionID] = e
	m.sweepLocked(now)
	observability.ObserveSession("memory", "issued")
	return tok, nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
		}
	}
}
