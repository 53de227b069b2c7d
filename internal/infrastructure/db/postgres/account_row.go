package postgres

import (
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

type accountRow struct {
	ID           string
	FullName     string
	Company      string
	Email        string
	PasswordHash string
	IsVerified   bool
	Role         string
	CreatedAt    time.Time
}

func (r accountRow) toDomain() domain.AccountRecord {
	return domain.AccountRecord{
		ID:           r.ID,
		FullName:     r.FullName,
		Company:      r.Company,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsVerified:   r.IsVerified,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (accountRow, error) {
	var r accountRow
	err := s.Scan(
		&r.ID,
		&r.FullName,
		&r.Company,
		&r.Email,
		&r.PasswordHash,
		&r.IsVerified,
		&r.Role,
		&r.CreatedAt,
	)
	return r, err
}
