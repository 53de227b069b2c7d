package registration

import (
	"context"
	"strings"

	"github.com/baechuer/admin-portal/internal/domain"
)

// OpenSession creates the marker the dashboard guard reads.
func (s *Service) OpenSession(ctx context.Context, acct domain.AccountRecord) (domain.SessionMarker, error) {
	acct.PasswordHash = ""
	m := domain.SessionMarker{
		ID:            s.newID(),
		Account:       acct,
		Authenticated: true,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, m, s.sessionTTL); err != nil {
		return domain.SessionMarker{}, asDomain(err, domain.ErrSessionStoreUnavailable)
	}
	return m, nil
}

// Session returns the marker for id, as checked by the dashboard access guard.
func (s *Service) Session(ctx context.Context, id string) (domain.SessionMarker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	m, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.SessionMarker{}, asDomain(err, domain.ErrSessionStoreUnavailable)
	}
	if !m.Authenticated {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	return m, nil
}

// Logout clears the marker. Missing sessions are not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return asDomain(err, domain.ErrSessionStoreUnavailable)
	}
	s.audit("session.logout", map[string]string{"session_id": id})
	return nil
}
