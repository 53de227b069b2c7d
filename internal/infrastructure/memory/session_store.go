package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

type sessionEntry struct {
	m         domain.SessionMarker
	expiresAt time.Time
}

type SessionStore struct {
	mu    sync.RWMutex
	items map[string]sessionEntry
	now   func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]sessionEntry), now: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, m domain.SessionMarker, ttl time.Duration) error {
	if m.ID == "" {
		return domain.ErrMissingField("session_id")
	}
	m.Account.PasswordHash = ""

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[m.ID] = sessionEntry{m: m, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.SessionMarker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok || s.now().After(e.expiresAt) {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	return e.m, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
