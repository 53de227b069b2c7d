package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Locker hands out per-key locks that expire after ttl, so a lost release
// cannot wedge a registration forever.
type Locker struct {
	mu   sync.Mutex
	held map[string]lockEntry
	now  func() time.Time
	seq  uint64
}

type lockEntry struct {
	owner     uint64
	expiresAt time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]lockEntry), now: time.Now}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return nil, domain.ErrTransitionInFlight()
	}

	l.seq++
	owner := l.seq
	l.held[key] = lockEntry{owner: owner, expiresAt: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.owner == owner {
			delete(l.held, key)
		}
	}, nil
}
