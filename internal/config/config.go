package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/baechuer/admin-portal/internal/application/registration"
)

const (
	NotifierEmailJS  = "emailjs"
	NotifierSMTP     = "smtp"
	NotifierRabbitMQ = "rabbitmq"
	NotifierLog      = "log"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Infrastructure
	DBAddr    string
	DBDebug   bool
	DBMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitURL      string
	RabbitExchange string

	// Code delivery
	Notifier       string
	DeliveryPolicy registration.DeliveryPolicy
	NotifyTimeout  time.Duration

	EmailJS EmailJS
	SMTP    SMTP

	MailFromName string
	MailReplyTo  string

	// Workflow
	CodeTTL     time.Duration
	WorkflowTTL time.Duration
	SessionTTL  time.Duration
	LockTTL     time.Duration // bounds one transition, so NOTIFY_TIMEOUT must fit inside it
	BcryptCost  int
}

type EmailJS struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Insecure bool
}

func (c *Config) IsDev() bool { return c.Env == "dev" }

func Load() (*Config, error) {
	// .env is optional; real env wins
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBAddr:        os.Getenv("DB_ADDR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "admin.events"),

		Notifier: strings.ToLower(getEnv("NOTIFIER", NotifierEmailJS)),

		EmailJS: EmailJS{
			BaseURL:    getEnv("EMAILJS_BASE_URL", "https://api.emailjs.com"),
			ServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
			TemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
			PublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
			PrivateKey: os.Getenv("EMAILJS_PRIVATE_KEY"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},

		MailFromName: getEnv("MAIL_FROM_NAME", registration.DefaultSender.Name),
		MailReplyTo:  getEnv("MAIL_REPLY_TO", registration.DefaultSender.ReplyTo),
	}

	var err error
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBMigrate, err = getBool("DB_MIGRATE", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.SMTP.Insecure, err = getBool("SMTP_INSECURE", false); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	cfg.DeliveryPolicy, err = registration.ParseDeliveryPolicy(os.Getenv("DELIVERY_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("DELIVERY_POLICY: %w", err)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", 10 * time.Second, &cfg.HTTPReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.HTTPWriteTimeout},
		{"HTTP_IDLE_TIMEOUT", time.Minute, &cfg.HTTPIdleTimeout},
		{"NOTIFY_TIMEOUT", 10 * time.Second, &cfg.NotifyTimeout},
		{"CODE_TTL", registration.DefaultCodeTTL, &cfg.CodeTTL},
		{"WORKFLOW_TTL", 30 * time.Minute, &cfg.WorkflowTTL},
		{"SESSION_TTL", 8 * time.Hour, &cfg.SessionTTL},
		{"LOCK_TTL", registration.DefaultLockTTL, &cfg.LockTTL},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", d.key, v)
		}
		*d.dst = v
	}

	if cfg.CodeTTL > cfg.WorkflowTTL {
		return nil, fmt.Errorf("CODE_TTL (%s) must not exceed WORKFLOW_TTL (%s)", cfg.CodeTTL, cfg.WorkflowTTL)
	}
	if cfg.NotifyTimeout >= cfg.LockTTL {
		return nil, fmt.Errorf("NOTIFY_TIMEOUT (%s) must be shorter than LOCK_TTL (%s)", cfg.NotifyTimeout, cfg.LockTTL)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the settings that only matter outside dev. In dev the
// service falls back to in-memory stores and reports missing relay settings
// at send time instead.
func (c *Config) validate() error {
	switch c.Notifier {
	case NotifierEmailJS, NotifierSMTP, NotifierRabbitMQ, NotifierLog:
	default:
		return fmt.Errorf("invalid NOTIFIER %q (want emailjs, smtp, rabbitmq or log)", c.Notifier)
	}

	if c.DBAddr != "" && !strings.HasPrefix(c.DBAddr, "postgres://") && !strings.HasPrefix(c.DBAddr, "postgresql://") {
		return fmt.Errorf("DB_ADDR must be a postgres URL")
	}

	if c.IsDev() {
		return nil
	}

	// Infrastructure dependencies.
	// Outside dev the portal cannot keep accounts or workflows in process memory.
	if c.DBAddr == "" {
		return fmt.Errorf("missing required env var: DB_ADDR")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("missing required env var: REDIS_ADDR")
	}
	if c.Notifier == NotifierLog {
		return fmt.Errorf("NOTIFIER=log is only allowed when ENV=dev")
	}
	if missing := c.MissingRelaySettings(); len(missing) > 0 {
		return fmt.Errorf("missing required env var(s) for NOTIFIER=%s: %s", c.Notifier, strings.Join(missing, ", "))
	}
	return nil
}

// MissingRelaySettings names the env vars the selected notifier needs but
// does not have.
func (c *Config) MissingRelaySettings() []string {
	var out []string
	for _, s := range c.RelaySettings() {
		if s.Required && !s.Present {
			out = append(out, s.Name)
		}
	}
	return out
}

// RelaySetting reports whether a relay value is set, never the value.
type RelaySetting struct {
	Name     string `json:"name"`
	Present  bool   `json:"present"`
	Required bool   `json:"required"`
}

func (c *Config) RelaySettings() []RelaySetting {
	set := func(name, v string, required bool) RelaySetting {
		return RelaySetting{Name: name, Present: strings.TrimSpace(v) != "", Required: required}
	}
	switch c.Notifier {
	case NotifierEmailJS:
		return []RelaySetting{
			set("EMAILJS_SERVICE_ID", c.EmailJS.ServiceID, true),
			set("EMAILJS_TEMPLATE_ID", c.EmailJS.TemplateID, true),
			set("EMAILJS_PUBLIC_KEY", c.EmailJS.PublicKey, true),
			set("EMAILJS_PRIVATE_KEY", c.EmailJS.PrivateKey, false),
		}
	case NotifierSMTP:
		return []RelaySetting{
			set("SMTP_HOST", c.SMTP.Host, true),
			set("SMTP_FROM", c.SMTP.From, true),
			set("SMTP_USERNAME", c.SMTP.Username, false),
			set("SMTP_PASSWORD", c.SMTP.Password, false),
		}
	case NotifierRabbitMQ:
		return []RelaySetting{
			set("RABBIT_URL", c.RabbitURL, true),
			set("RABBIT_EXCHANGE", c.RabbitExchange, false),
		}
	default:
		return nil
	}
}

func (c *Config) Sender() registration.Sender {
	return registration.Sender{Name: c.MailFromName, ReplyTo: c.MailReplyTo}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
