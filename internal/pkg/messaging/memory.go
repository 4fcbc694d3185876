package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory is an in-process broker. Every subscriber of a destination receives
// each message once; messages published with no subscriber are dropped.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]chan memoryMessage
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan memoryMessage)}
}

// Close stops every running Consume call.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, chans := range m.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	m.subs = nil
	return nil
}

// Publish hands a copy of msg to every current subscriber of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return io.ErrClosedPipe
	}

	for _, ch := range m.subs[destination] {
		mm := memoryMessage{
			body:        append([]byte(nil), msg.Body...),
			key:         append([]byte(nil), msg.Key...),
			headers:     msg.Headers,
			destination: destination,
			receivedAt:  time.Now(),
		}
		select {
		case ch <- mm:
		default:
			slog.WarnContext(ctx, "memory subscriber is full, message dropped", "destination", destination)
		}
	}
	return nil
}

// Consume registers a subscriber and blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch := make(chan memoryMessage, 64)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], ch)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case mm, ok := <-ch:
					if !ok {
						return
					}
					mm.done = atomic.NewBool(false)
					//nolint:errcheck // in-process acks cannot fail
					_ = deliver(ctx, DriverMemory, &mm, handler, co.autoAck)
				case <-ctx.Done():
					return
				}
			}
		})
	}

	wg.Wait()
	m.unsubscribe(source, ch)

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

func (m *Memory) unsubscribe(source string, ch chan memoryMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	chans := m.subs[source]
	for i := range chans {
		if chans[i] == ch {
			m.subs[source] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

type memoryMessage struct {
	body        []byte
	key         []byte
	headers     map[string]string
	destination string
	receivedAt  time.Time
	done        *atomic.Bool
}

func (m *memoryMessage) Body() []byte { return m.body }

func (m *memoryMessage) Key() []byte { return m.key }

func (m *memoryMessage) Header(key string) string { return m.headers[key] }

func (m *memoryMessage) Destination() string { return m.destination }

func (m *memoryMessage) ReceivedAt() time.Time { return m.receivedAt }

func (m *memoryMessage) responded() bool { return m.done.Load() }

func (m *memoryMessage) Ack(context.Context) error {
	m.done.Store(true)
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	m.done.Store(true)
	return nil
}

// IsClosed reports whether err means the broker was shut down.
func IsClosed(err error) bool {
	return errors.Is(err, io.ErrClosedPipe)
}
