package memory

import (
	"context"
	"sync"

	"github.com/baechuer/admin-portal/internal/domain"
)

// AccountStore is the in-process account table used when DB_ADDR is unset.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.AccountRecord
	byEmail map[string]string // normalized email -> account id
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]domain.AccountRecord),
		byEmail: make(map[string]string),
	}
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) ([]domain.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return []domain.AccountRecord{s.byID[id]}, nil
}

func (s *AccountStore) Insert(ctx context.Context, rec domain.AccountRecord) (domain.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return domain.AccountRecord{}, domain.ErrMissingField("id")
	}
	key := domain.NormalizeEmail(rec.Email)
	if _, exists := s.byEmail[key]; exists {
		return domain.AccountRecord{}, domain.ErrEmailAlreadyExists()
	}

	s.byID[rec.ID] = rec
	s.byEmail[key] = rec.ID
	return rec, nil
}

func (s *AccountStore) Ping(ctx context.Context) error { return nil }
