package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-portal/internal/domain"
)

func TestWorkflowStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()

	c, mr := newTestClient(t)
	s := NewWorkflowStore(c)
	ctx := context.Background()

	exp := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)
	snap := domain.Snapshot{
		ID:           "r1",
		State:        domain.StateAwaitingCode,
		Draft:        domain.RegistrationDraft{FullName: "Ann Lee", Company: "Acme", Email: "ann@acme.io"},
		PasswordHash: "$2a$10$abc",
		Challenge:    &domain.VerificationChallenge{Code: "5678", ExpiresAt: exp},
	}
	require.NoError(t, s.Save(ctx, snap, 30*time.Minute))
	assert.Equal(t, 30*time.Minute, mr.TTL("reg:wf:r1"))

	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingCode, got.State)
	assert.Equal(t, "$2a$10$abc", got.PasswordHash)
	require.NotNil(t, got.Challenge)
	assert.Equal(t, "5678", got.Challenge.Code)
	assert.True(t, got.Challenge.ExpiresAt.Equal(exp))

	require.NoError(t, s.Delete(ctx, "r1"))
	_, err = s.Load(ctx, "r1")
	assert.True(t, domain.Is(err, "registration_not_found"))
}

func TestWorkflowStore_ExpiredIsNotFound(t *testing.T) {
	t.Parallel()

	c, mr := newTestClient(t)
	s := NewWorkflowStore(c)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Snapshot{ID: "r2", State: domain.StateEditing}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, "r2")
	assert.True(t, domain.Is(err, "registration_not_found"))
}

func TestWorkflowStore_CorruptIsNotFound(t *testing.T) {
	t.Parallel()

	c, mr := newTestClient(t)
	require.NoError(t, mr.Set("reg:wf:bad", "{not json"))

	_, err := NewWorkflowStore(c).Load(context.Background(), "bad")
	assert.True(t, domain.Is(err, "registration_not_found"))
}

func TestWorkflowStore_Validation(t *testing.T) {
	t.Parallel()

	s := NewWorkflowStore(nil)
	ctx := context.Background()

	assert.True(t, isMissingField(s.Save(ctx, domain.Snapshot{}, time.Minute), "id"))
	assert.True(t, isMissingField(s.Save(ctx, domain.Snapshot{ID: "x"}, 0), "ttl"))

	err := s.Save(ctx, domain.Snapshot{ID: "x"}, time.Minute)
	require.Error(t, err)
	assert.Equal(t, "redis workflow store not configured", err.Error())
}
