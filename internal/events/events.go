// Package events mirrors handoff and ingress activity onto a RabbitMQ topic
// exchange so other services can follow chat state without polling the
// panel. Publishing is optional; when no broker is configured a no-op
// publisher is used.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Event types, also used as routing keys.
const (
	TypeChatStatusChanged = "chat.status_changed.v1"
	TypeMessageReceived   = "message.received.v1"
)

// Meta describes an emitted event.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      *string   `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope is the wire body of every published event.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope wraps data with fresh metadata. The correlation id is taken
// from the active trace in ctx when there is one.
func NewEnvelope(ctx context.Context, eventType, producer string, data any) Envelope {
	m := Meta{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
		Type: eventType,
	}
	if producer != "" {
		m.Producer = &producer
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		cid := sc.TraceID().String()
		m.CorrelationID = &cid
	}
	return Envelope{Meta: m, Data: data}
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// ErrNacked is returned when the broker refuses a published event.
var ErrNacked = errors.New("events: broker nacked publish")

// confirmTimeout bounds the wait for a publisher confirm when ctx has no
// deadline of its own.
const confirmTimeout = 5 * time.Second

// confirmation is the broker's pending answer to one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// channel is the slice of *amqp.Channel a publish needs.
type channel interface {
	Confirm(noWait bool) error
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type amqpChannel struct{ *amqp.Channel }

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	conf, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, errors.New("events: channel not in confirm mode")
	}
	return conf, nil
}

// AMQP publishes envelopes to a durable topic exchange with persistent
// delivery and waits for the broker to confirm each one. A channel is
// opened per publish; connections are shared.
type AMQP struct {
	conn     *amqp.Connection
	open     func() (channel, error)
	exchange string
	producer string
}

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange, producer string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: declare %q: %w", exchange, err)
	}
	open := func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return amqpChannel{ch}, nil
	}
	return &AMQP{conn: conn, open: open, exchange: exchange, producer: producer}, nil
}

// Publish sends data as an Envelope routed by eventType and returns once the
// broker has acked it.
func (p *AMQP) Publish(ctx context.Context, eventType string, data any) error {
	env := NewEnvelope(ctx, eventType, p.producer, data)
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("events: channel: %w", err)
	}
	defer ch.Close()
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("events: confirm mode: %w", err)
	}

	cid := env.Meta.ID
	if env.Meta.CorrelationID != nil {
		cid = *env.Meta.CorrelationID
	}
	conf, err := ch.publish(ctx, p.exchange, eventType, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: cid,
		Timestamp:     env.Meta.Time,
		Type:          eventType,
		Body:          body,
	})
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, confirmTimeout)
		defer cancel()
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("events: await confirm: %w", err)
	}
	if !acked {
		return ErrNacked
	}
	log.Debug().Str("exchange", p.exchange).Str("key", eventType).Msg("event published")
	return nil
}

// Close closes the broker connection.
func (p *AMQP) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
