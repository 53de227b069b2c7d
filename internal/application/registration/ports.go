package registration

import (
	"context"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

/*
AccountStore
------------
Durable admin accounts. Insert must surface the store's own uniqueness rule
as domain.ErrEmailAlreadyExists so a race between the uniqueness check and
the insert is still reported as a duplicate.
*/
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) ([]domain.AccountRecord, error)
	Insert(ctx context.Context, rec domain.AccountRecord) (domain.AccountRecord, error)
	Ping(ctx context.Context) error
}

/*
Notifier
--------
Delivers the one-time code through an email relay.
Errors are classified with domain.ErrSend.
*/
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

/*
WorkflowStore
-------------
Holds the in-flight snapshot of each registration until it completes,
is abandoned or its TTL runs out.
*/
type WorkflowStore interface {
	Load(ctx context.Context, id string) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

/*
Locker
------
Serializes transitions of one registration. TryLock never waits: a held
lock yields domain.ErrTransitionInFlight.
*/
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

/*
SessionStore
------------
Keeps the session marker consulted by the dashboard guard.
*/
type SessionStore interface {
	Create(ctx context.Context, m domain.SessionMarker, ttl time.Duration) error
	Get(ctx context.Context, id string) (domain.SessionMarker, error)
	Delete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}
