package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-portal/internal/domain"
)

func TestAccountStore_UniqueByNormalizedEmail(t *testing.T) {
	t.Parallel()

	s := NewAccountStore()
	ctx := context.Background()

	_, err := s.Insert(ctx, domain.AccountRecord{ID: "a1", Email: "ann@acme.io"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, domain.AccountRecord{ID: "a2", Email: "ANN@acme.io "})
	assert.True(t, domain.Is(err, "email_already_exists"))

	got, err := s.FindByEmail(ctx, "Ann@Acme.io")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	got, err = s.FindByEmail(ctx, "bob@acme.io")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWorkflowStore_ExpiresAndCopies(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewWorkflowStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	snap := domain.Snapshot{ID: "r1", State: domain.StateAwaitingCode, Challenge: &domain.VerificationChallenge{Code: "1234"}}
	require.NoError(t, s.Save(ctx, snap, time.Minute))

	// mutating the caller's copy does not reach the store
	snap.Challenge.Code = "0000"
	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "1234", got.Challenge.Code)

	now = now.Add(2 * time.Minute)
	_, err = s.Load(ctx, "r1")
	assert.True(t, domain.Is(err, "registration_not_found"))
}

func TestLocker_ExclusiveUntilReleaseOrExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLocker()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	release, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "k", time.Second)
	assert.True(t, domain.Is(err, "transition_in_flight"))

	release()
	stale, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)

	// the expired holder releasing late must not free the new holder's lock
	stale()
	_, err = l.TryLock(ctx, "k", time.Second)
	assert.True(t, domain.Is(err, "transition_in_flight"))
	fresh()
}

func TestSessionStore_DropsHashAndExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSessionStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, domain.SessionMarker{
		ID:            "s1",
		Account:       domain.AccountRecord{Email: "ann@acme.io", PasswordHash: "h"},
		Authenticated: true,
	}, time.Hour))

	m, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, m.Account.PasswordHash)

	now = now.Add(2 * time.Hour)
	_, err = s.Get(ctx, "s1")
	assert.True(t, domain.Is(err, "session_not_found"))
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hash:" + pw, nil }

func TestSeedAdmin_Idempotent(t *testing.T) {
	t.Parallel()

	s := NewAccountStore()
	ctx := context.Background()

	SeedAdmin(ctx, s, plainHasher{})
	SeedAdmin(ctx, s, plainHasher{})

	got, err := s.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsVerified)
	assert.Equal(t, domain.RoleAdmin, got[0].Role)
}
