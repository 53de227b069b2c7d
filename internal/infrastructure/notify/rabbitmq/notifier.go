package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/domain"
)

const (
	DefaultExchange = "admin.events"

	RoutingKeyCodeRequested = "admin.verification.code.requested"

	// how long to wait for the broker's confirm or return
	publishWait = 2 * time.Second
)

// CodeRequestedEvent is consumed by the external email worker, which renders
// the relay template from TemplateParams.
type CodeRequestedEvent struct {
	To             string            `json:"to_email"`
	TemplateParams map[string]string `json:"template_params"`
	RequestedAt    time.Time         `json:"requested_at"`
}

func newEvent(n registration.Notification, from registration.Sender, now time.Time) CodeRequestedEvent {
	return CodeRequestedEvent{
		To:             n.To,
		TemplateParams: registration.TemplateParams(n, from),
		RequestedAt:    now.UTC(),
	}
}

// Notifier hands code emails to a worker over a topic exchange with
// publisher confirms and the mandatory flag, so an unbound routing key is an error.
type Notifier struct {
	url      string
	exchange string
	from     registration.Sender
	lg       zerolog.Logger

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewNotifier(url, exchange string, from registration.Sender, lg zerolog.Logger) (*Notifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if from.Name == "" {
		from = registration.DefaultSender
	}
	n := &Notifier{
		url:      url,
		exchange: exchange,
		from:     from,
		lg:       lg.With().Str("component", "rabbitmq_notifier").Logger(),
	}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetConn()
	return nil
}

func (n *Notifier) Send(ctx context.Context, msg registration.Notification) error {
	body, err := json.Marshal(newEvent(msg, n.from, time.Now()))
	if err != nil {
		return domain.ErrSend(domain.CodeSendUnknown, fmt.Errorf("marshal payload: %w", err))
	}

	if err := n.publish(ctx, RoutingKeyCodeRequested, body); err != nil {
		n.lg.Warn().Err(err).Str("to", msg.To).Msg("code event publish failed")
		return classify(err)
	}
	n.lg.Info().Str("to", msg.To).Msg("code event published")
	return nil
}

var (
	errUnroutable = errors.New("rabbitmq unroutable")
	errNack       = errors.New("rabbitmq nack")
)

func classify(err error) error {
	switch {
	case errors.Is(err, errUnroutable):
		// nothing is bound to consume code emails
		return domain.ErrSend(domain.CodeSendConfigurationMissing, err)
	case errors.Is(err, errNack):
		return domain.ErrSend(domain.CodeSendUnknown, err)
	default:
		return domain.ErrSend(domain.CodeSendNetworkError, err)
	}
}

// ---- internal ----

func (n *Notifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	// Declare topic exchange (idempotent).
	if err := ch.ExchangeDeclare(
		n.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	n.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	n.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	n.conn = conn
	n.ch = ch
	return nil
}

func (n *Notifier) ensureConnected() error {
	if n.conn != nil && !n.conn.IsClosed() && n.ch != nil {
		return nil
	}
	return n.connect()
}

func (n *Notifier) publish(ctx context.Context, routingKey string, body []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureConnected(); err != nil {
		return err
	}

	// Drain any stale confirm / return messages to avoid mixing results.
drain:
	for {
		select {
		case <-n.confirmCh:
		case <-n.returnCh:
		default:
			break drain
		}
	}

	if err := n.ch.PublishWithContext(
		ctx,
		n.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		n.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	timer := time.NewTimer(publishWait)
	defer timer.Stop()

	// A Return for a mandatory publish is delivered before its Ack.
	select {
	case ret := <-n.returnCh:
		return fmt.Errorf("%w: key=%s code=%d text=%s", errUnroutable, routingKey, ret.ReplyCode, ret.ReplyText)

	case conf := <-n.confirmCh:
		select {
		case ret := <-n.returnCh:
			return fmt.Errorf("%w: key=%s code=%d text=%s", errUnroutable, routingKey, ret.ReplyCode, ret.ReplyText)
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("%w: key=%s deliveryTag=%d", errNack, routingKey, conf.DeliveryTag)
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("rabbitmq publish timeout: key=%s", routingKey)

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) resetConn() {
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}
