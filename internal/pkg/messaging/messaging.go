package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when the topic/subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends a message to a topic (Kafka) or subject (NATS).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

// Consumer blocks delivering messages from source to handler until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack enabled a nil error
// acks the message and a non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is the payload handed to Publish.
type OutgoingMessage struct {
	Body []byte
	// Key selects the Kafka partition; other brokers ignore it.
	Key     []byte
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Header(key string) string
	// Destination is the topic or subject the message arrived on.
	Destination() string
	ReceivedAt() time.Time
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
