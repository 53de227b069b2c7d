package registration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/admin-portal/internal/domain"
)

const (
	DefaultWorkflowTTL = 30 * time.Minute
	DefaultSessionTTL  = 12 * time.Hour
	DefaultLockTTL     = 30 * time.Second
)

type Service struct {
	accounts  AccountStore
	notifier  Notifier
	workflows WorkflowStore
	locks     Locker
	sessions  SessionStore
	hasher    PasswordHasher
	codes     *CodeGenerator

	policy      DeliveryPolicy
	workflowTTL time.Duration
	sessionTTL  time.Duration
	lockTTL     time.Duration

	now   func() time.Time
	newID func() string
	audit func(action string, fields map[string]string)
}

type Config struct {
	DeliveryPolicy DeliveryPolicy
	CodeTTL        time.Duration
	WorkflowTTL    time.Duration
	SessionTTL     time.Duration
	LockTTL        time.Duration

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

func NewService(
	accounts AccountStore,
	notifier Notifier,
	workflows WorkflowStore,
	locks Locker,
	sessions SessionStore,
	hasher PasswordHasher,
	cfg Config,
) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	policy := cfg.DeliveryPolicy
	if policy == "" {
		policy = PolicyLenient
	}
	workflowTTL := cfg.WorkflowTTL
	if workflowTTL <= 0 {
		workflowTTL = DefaultWorkflowTTL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}

	return &Service{
		accounts:  accounts,
		notifier:  notifier,
		workflows: workflows,
		locks:     locks,
		sessions:  sessions,
		hasher:    hasher,
		codes:     NewCodeGenerator(cfg.CodeTTL, now),

		policy:      policy,
		workflowTTL: workflowTTL,
		sessionTTL:  sessionTTL,
		lockTTL:     lockTTL,

		now:   now,
		newID: newID,
		audit: func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// transition runs fn against the snapshot of id while holding its lock and
// persists the result, including on error, so fn must only mutate what it
// means to keep.
func (s *Service) transition(ctx context.Context, id string, fn func(snap *domain.Snapshot) error) (domain.Snapshot, error) {
	release, err := s.locks.TryLock(ctx, lockKey(id), s.lockTTL)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer release()

	snap, err := s.workflows.Load(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	// a verifying marker left behind by a holder that died mid-flight
	if snap.State == domain.StateVerifying {
		snap.State = domain.StateAwaitingCode
	}

	fnErr := fn(&snap)

	snap.UpdatedAt = s.now()
	if err := s.workflows.Save(ctx, snap, s.workflowTTL); err != nil && fnErr == nil {
		return snap, err
	}
	return snap, fnErr
}

// checkpoint persists an intermediate state while the lock is still held.
func (s *Service) checkpoint(ctx context.Context, snap *domain.Snapshot) error {
	snap.UpdatedAt = s.now()
	return s.workflows.Save(ctx, *snap, s.workflowTTL)
}

func lockKey(id string) string { return "registration:" + id }

func requireState(snap *domain.Snapshot, want domain.WorkflowState, action string) error {
	if snap.State == want {
		return nil
	}
	if snap.State == domain.StateCompleted {
		return domain.ErrWorkflowCompleted()
	}
	return domain.ErrInvalidState(snap.State, action)
}

// asDomain keeps domain errors as they are and wraps anything else with wrap.
func asDomain(err error, wrap func(error) *domain.Error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return wrap(err)
}

// storeErr treats non-domain store errors as transport failures.
func storeErr(err error) error {
	return asDomain(err, domain.ErrStoreUnavailable)
}
