package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

type workflowEntry struct {
	snap      domain.Snapshot
	expiresAt time.Time
}

// WorkflowStore keeps snapshots in process. Expired entries are dropped lazily on read.
type WorkflowStore struct {
	mu    sync.Mutex
	items map[string]workflowEntry
	now   func() time.Time
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{items: make(map[string]workflowEntry), now: time.Now}
}

func (s *WorkflowStore) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrRegistrationNotFound()
	}
	if s.now().After(e.expiresAt) {
		delete(s.items, id)
		return domain.Snapshot{}, domain.ErrRegistrationNotFound()
	}
	return cloneSnapshot(e.snap), nil
}

func (s *WorkflowStore) Save(ctx context.Context, snap domain.Snapshot, ttl time.Duration) error {
	if snap.ID == "" {
		return domain.ErrMissingField("id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[snap.ID] = workflowEntry{snap: cloneSnapshot(snap), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// cloneSnapshot copies the pointer fields so callers cannot mutate stored state.
func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	if s.Challenge != nil {
		ch := *s.Challenge
		s.Challenge = &ch
	}
	if s.Account != nil {
		a := *s.Account
		s.Account = &a
	}
	return s
}
