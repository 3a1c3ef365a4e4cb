package messaging

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"
)

var (
	// ErrTopicRequired is returned when the topic or subject is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
//
// With auto-ack enabled a nil error acks the message and a non-nil error
// nacks it. Handlers may also call Ack or Nack themselves.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Key is used for partitioning where the broker supports it.
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	ID() string
	Topic() string
	Key() []byte
	Body() []byte
	// Header returns the named header or an empty string.
	Header(key string) string
	Headers() map[string]string
	ReceivedAt() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// delivery is the Message implementation shared by all drivers. Only the
// first Ack or Nack reaches the broker.
type delivery struct {
	id         string
	topic      string
	key        []byte
	body       []byte
	headers    map[string]string
	receivedAt time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (d *delivery) ID() string                 { return d.id }
func (d *delivery) Topic() string              { return d.topic }
func (d *delivery) Key() []byte                { return d.key }
func (d *delivery) Body() []byte               { return d.body }
func (d *delivery) Header(key string) string   { return d.headers[key] }
func (d *delivery) Headers() map[string]string { return d.headers }
func (d *delivery) ReceivedAt() time.Time      { return d.receivedAt }

func (d *delivery) Ack(ctx context.Context) error {
	return d.respond(ctx, d.ack)
}

func (d *delivery) Nack(ctx context.Context) error {
	return d.respond(ctx, d.nack)
}

func (d *delivery) respond(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) {
		return nil
	}
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (d *delivery) hasResponded() bool {
	return d.responded.Load()
}

func validateConsume(ctx context.Context, topic string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}

func concurrencyOrDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
