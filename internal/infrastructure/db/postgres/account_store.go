package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/admin-portal/internal/domain"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgNotNull         = "23502"

	emailUniqueIndex = "admin_accounts_email_key"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) ([]domain.AccountRecord, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrMissingField("email")
	}

	const q = `
SELECT id, full_name, company, email, password_hash, is_verified, role, created_at
FROM admin_accounts
WHERE lower(email) = $1;
`
	rows, err := s.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, domain.ErrStoreUnavailable(err)
	}
	defer rows.Close()

	var out []domain.AccountRecord
	for rows.Next() {
		r, err := scanAccount(rows)
		if err != nil {
			return nil, domain.ErrStoreUnavailable(err)
		}
		out = append(out, r.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable(err)
	}
	return out, nil
}

func (s *AccountStore) Insert(ctx context.Context, rec domain.AccountRecord) (domain.AccountRecord, error) {
	rec.Email = domain.NormalizeEmail(rec.Email)
	if strings.TrimSpace(rec.ID) == "" {
		return domain.AccountRecord{}, domain.ErrMissingField("id")
	}
	if rec.Email == "" {
		return domain.AccountRecord{}, domain.ErrMissingField("email")
	}
	if rec.PasswordHash == "" {
		return domain.AccountRecord{}, domain.ErrMissingField("password_hash")
	}
	if rec.Role == "" {
		rec.Role = domain.RoleAdmin
	}

	const q = `
INSERT INTO admin_accounts (id, full_name, company, email, password_hash, is_verified, role, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, full_name, company, email, password_hash, is_verified, role, created_at;
`
	r, err := scanAccount(s.db.QueryRowContext(ctx, q,
		rec.ID, rec.FullName, rec.Company, rec.Email, rec.PasswordHash, rec.IsVerified, string(rec.Role), rec.CreatedAt,
	))
	if err != nil {
		return domain.AccountRecord{}, mapInsertErr(err)
	}
	return r.toDomain(), nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.ErrStoreUnavailable(err)
	}
	return nil
}

// mapInsertErr turns integrity violations into domain errors; anything else is
// treated as the store being unreachable.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return domain.ErrStoreUnavailable(err)
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == "" || pgErr.ConstraintName == emailUniqueIndex {
			return domain.ErrEmailAlreadyExists()
		}
		return domain.ErrStoreConstraint(pgErr.ConstraintName, err)
	case pgCheckViolation, pgNotNull:
		return domain.ErrStoreConstraint(pgErr.ConstraintName, err)
	default:
		return domain.ErrStoreUnavailable(err)
	}
}
