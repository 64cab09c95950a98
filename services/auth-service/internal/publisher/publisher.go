// Package publisher delivers user lifecycle events to the shared Kafka
// topic. Events are fire-and-forget: a failed write is reported to the
// caller, who logs it and keeps the already committed store mutation.
package publisher

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/weirdname404/async-arch-course/libs/events"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Publisher owns its broker connection; callers construct it at startup and
// Close it on shutdown.
type Publisher struct {
	writer messageWriter
	logger *log.Logger
}

// Option configures optional publisher behaviour.
type Option func(*Publisher)

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New constructs a Publisher writing to the shared user topic. The hash
// balancer keeps all messages with the same routing key on one partition, so
// per-producer publish order survives the broker.
func New(brokers []string, opts ...Option) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        events.UserTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	p := &Publisher{writer: writer, logger: log.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishCUD sends a create/update/delete lifecycle event.
func (p *Publisher) PublishCUD(ctx context.Context, kind events.Kind, data map[string]any) error {
	return p.publish(ctx, kind, data, events.KeyCUD)
}

// PublishBIZ sends a business event.
func (p *Publisher) PublishBIZ(ctx context.Context, kind events.Kind, data map[string]any) error {
	return p.publish(ctx, kind, data, events.KeyBIZ)
}

func (p *Publisher) publish(ctx context.Context, kind events.Kind, data map[string]any, key string) error {
	env := events.NewEnvelope(kind, data)
	value, err := events.Encode(env)
	if err != nil {
		recordPublishError(key)
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		recordPublishError(key)
		return err
	}

	p.logger.Printf("published %s event %s (key=%s)", env.Name, env.ID, key)
	recordPublished(key, string(kind))
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
