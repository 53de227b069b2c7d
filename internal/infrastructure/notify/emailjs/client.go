package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/domain"
)

const DefaultBaseURL = "https://api.emailjs.com"

type Config struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	// PrivateKey is the optional access token for server-side sends.
	PrivateKey string
	Timeout    time.Duration
	From       registration.Sender
}

// Missing lists the required settings that are empty.
func (c Config) Missing() []string {
	var out []string
	if strings.TrimSpace(c.ServiceID) == "" {
		out = append(out, "EMAILJS_SERVICE_ID")
	}
	if strings.TrimSpace(c.TemplateID) == "" {
		out = append(out, "EMAILJS_TEMPLATE_ID")
	}
	if strings.TrimSpace(c.PublicKey) == "" {
		out = append(out, "EMAILJS_PUBLIC_KEY")
	}
	return out
}

// Client sends the code email through the EmailJS REST relay.
type Client struct {
	cfg    Config
	url    string
	client *http.Client
	lg     zerolog.Logger
}

func New(cfg Config, lg zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.From.Name == "" {
		cfg.From = registration.DefaultSender
	}
	return &Client{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/api/v1.0/email/send",
		client: &http.Client{Timeout: cfg.Timeout},
		lg:     lg.With().Str("component", "emailjs_notifier").Logger(),
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (c *Client) Send(ctx context.Context, n registration.Notification) error {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return domain.ErrSend(domain.CodeSendConfigurationMissing,
			fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: registration.TemplateParams(n, c.cfg.From),
	})
	if err != nil {
		return domain.ErrSend(domain.CodeSendUnknown, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.ErrSend(domain.CodeSendUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.lg.Warn().Err(err).Str("to", n.To).Msg("emailjs request failed")
		return domain.ErrSend(domain.CodeSendNetworkError, err)
	}
	defer resp.Body.Close()

	// the relay answers with a short text body ("OK" or the reason)
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusOK {
		c.lg.Info().Str("to", n.To).Msg("emailjs send ok")
		return nil
	}

	code := classify(resp.StatusCode)
	c.lg.Warn().
		Int("status", resp.StatusCode).
		Str("class", code).
		Str("body", strings.TrimSpace(string(text))).
		Str("to", n.To).
		Msg("emailjs send rejected")

	return domain.ErrSend(code, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))})
}

// StatusError is the relay's non-200 answer.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("emailjs status %d: %s", e.Status, e.Body)
}

func classify(status int) string {
	switch status {
	case http.StatusPreconditionFailed:
		return domain.CodeSendTemplateMismatch
	case http.StatusBadRequest:
		return domain.CodeSendInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.CodeSendUnauthorized
	case http.StatusPaymentRequired:
		return domain.CodeSendPaymentRequired
	default:
		return domain.CodeSendUnknown
	}
}

// AsStatus extracts the relay status from a send error, if there is one.
func AsStatus(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
