package logsender

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/admin-portal/internal/application/registration"
)

// Sender writes the code to the log instead of emailing it. Dev only.
type Sender struct {
	lg zerolog.Logger
}

func New(lg zerolog.Logger) *Sender {
	return &Sender{lg: lg.With().Str("component", "log_notifier").Logger()}
}

func (s *Sender) Send(ctx context.Context, n registration.Notification) error {
	s.lg.Info().
		Str("to", n.To).
		Str("user_name", n.UserName).
		Str("code", n.Code).
		Int("expires_in_minutes", n.ExpiresInMinutes()).
		Msg("FAKE send verification code")
	return nil
}
