package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/config"
	"github.com/baechuer/admin-portal/internal/infrastructure/notify/emailjs"
	"github.com/baechuer/admin-portal/internal/infrastructure/notify/logsender"
	"github.com/baechuer/admin-portal/internal/infrastructure/notify/rabbitmq"
	"github.com/baechuer/admin-portal/internal/infrastructure/notify/smtp"
)

// newNotifier builds the relay adapter named by NOTIFIER. The returned
// closer is nil when the adapter holds no connection.
func newNotifier(cfg *config.Config, lg zerolog.Logger) (registration.Notifier, func(), error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		return smtp.NewSender(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.NotifyTimeout,
			Insecure: cfg.SMTP.Insecure,
			Sender:   cfg.Sender(),
		}, lg), nil, nil

	case config.NotifierRabbitMQ:
		n, err := rabbitmq.NewNotifier(cfg.RabbitURL, cfg.RabbitExchange, cfg.Sender(), lg)
		if err != nil {
			return nil, nil, err
		}
		return n, func() { _ = n.Close() }, nil

	case config.NotifierLog:
		return logsender.New(lg), nil, nil

	default:
		return emailjs.New(emailjs.Config{
			BaseURL:    cfg.EmailJS.BaseURL,
			ServiceID:  cfg.EmailJS.ServiceID,
			TemplateID: cfg.EmailJS.TemplateID,
			PublicKey:  cfg.EmailJS.PublicKey,
			PrivateKey: cfg.EmailJS.PrivateKey,
			Timeout:    cfg.NotifyTimeout,
			From:       cfg.Sender(),
		}, lg), nil, nil
	}
}
