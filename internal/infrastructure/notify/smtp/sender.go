package smtp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
	Sender   registration.Sender
}

// Missing lists the required settings that are empty.
func (c Config) Missing() []string {
	var out []string
	if strings.TrimSpace(c.Host) == "" {
		out = append(out, "SMTP_HOST")
	}
	if strings.TrimSpace(c.From) == "" {
		out = append(out, "SMTP_FROM")
	}
	return out
}

type Sender struct {
	cfg Config
	lg  zerolog.Logger
}

func NewSender(cfg Config, lg zerolog.Logger) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Sender.Name == "" {
		cfg.Sender = registration.DefaultSender
	}
	return &Sender{
		cfg: cfg,
		lg:  lg.With().Str("component", "smtp_notifier").Logger(),
	}
}

func (s *Sender) Send(ctx context.Context, n registration.Notification) error {
	if missing := s.cfg.Missing(); len(missing) > 0 {
		return domain.ErrSend(domain.CodeSendConfigurationMissing,
			fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := s.message(n)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.cfg.Username), mail.WithPassword(s.cfg.Password))
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return domain.ErrSend(domain.CodeSendInvalidRequest, fmt.Errorf("smtp client init: %w", err))
	}

	s.lg.Info().Str("host", s.cfg.Host).Int("port", s.cfg.Port).Str("to", n.To).Msg("attempting smtp send")
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", n.To).Msg("smtp send failed")
		return domain.ErrSend(classify(err.Error()), err)
	}

	s.lg.Info().Str("to", n.To).Msg("smtp send ok")
	return nil
}

func (s *Sender) message(n registration.Notification) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.Sender.Name, s.cfg.From); err != nil {
		return nil, domain.ErrSend(domain.CodeSendInvalidRequest, fmt.Errorf("invalid from address: %w", err))
	}
	if err := m.To(n.To); err != nil {
		return nil, domain.ErrSend(domain.CodeSendInvalidRequest, fmt.Errorf("invalid to address: %w", err))
	}
	if s.cfg.Sender.ReplyTo != "" {
		if err := m.ReplyTo(s.cfg.Sender.ReplyTo); err != nil {
			return nil, domain.ErrSend(domain.CodeSendInvalidRequest, fmt.Errorf("invalid reply-to address: %w", err))
		}
	}
	m.Subject(n.Subject())

	htmlBody, err := renderHTML(n, s.cfg.Sender)
	if err != nil {
		return nil, domain.ErrSend(domain.CodeSendUnknown, err)
	}
	m.SetBodyString(mail.TypeTextPlain, renderText(n, s.cfg.Sender))
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	return m, nil
}

// classify maps SMTP failure text to a send class. Auth rejections are
// permanent; everything else is treated as the relay being unreachable.
func classify(msg string) string {
	if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
		return domain.CodeSendUnauthorized
	}
	if containsAny(msg, "550", "553", "5.1.1") {
		return domain.CodeSendInvalidRequest
	}
	return domain.CodeSendNetworkError
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}

var codeEmail = template.Must(template.New("code").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4; color:#111;">
    <h2>Admin Registration Verification</h2>
    <p>Hello {{.UserName}},</p>
    <p>Use this code to finish registering your admin account{{if .Company}} for <strong>{{.Company}}</strong>{{end}}:</p>
    <p style="font-size:32px; letter-spacing:8px; font-weight:bold; background:#f3f4f6; padding:12px 18px; display:inline-block; border-radius:6px;">{{.Code}}</p>
    <p>This code expires in {{.Minutes}} minutes.</p>
    <p style="color:#555; font-size:12px;">If you did not request this code, you can ignore this email.</p>
    <p style="color:#555; font-size:12px;">{{.From}}</p>
  </body>
</html>`))

type emailData struct {
	UserName string
	Company  string
	Code     string
	Minutes  int
	From     string
}

func renderHTML(n registration.Notification, from registration.Sender) (string, error) {
	var buf bytes.Buffer
	err := codeEmail.Execute(&buf, emailData{
		UserName: n.UserName,
		Company:  n.Company,
		Code:     n.Code,
		Minutes:  n.ExpiresInMinutes(),
		From:     from.Name,
	})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func renderText(n registration.Notification, from registration.Sender) string {
	return fmt.Sprintf("Hello %s,\n\nYour admin verification code is %s.\nIt expires in %d minutes.\n\n%s\n",
		n.UserName, n.Code, n.ExpiresInMinutes(), from.Name)
}
