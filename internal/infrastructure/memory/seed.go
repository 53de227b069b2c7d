package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Hasher is the minimal surface we need for seeding.
type Hasher interface {
	Hash(password string) (string, error)
}

// SeedAdmin inserts a verified admin for local development so the duplicate
// email path can be exercised without registering first.
// Safe to call multiple times (duplicates ignored).
func SeedAdmin(ctx context.Context, accounts *AccountStore, hasher Hasher) {
	const (
		email = "admin@example.com"
		pass  = "AdminPassword123!"
	)

	hash, err := hasher.Hash(pass)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("seed hash failed")
		return
	}

	_, err = accounts.Insert(ctx, domain.AccountRecord{
		ID:           uuid.NewString(),
		FullName:     "Seed Admin",
		Company:      "Example",
		Email:        email,
		PasswordHash: hash,
		IsVerified:   true,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// ignore duplicates / restart
		return
	}
	log.Info().Str("email", email).Msg("in-memory admin seeded")
}
