package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver("memory", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver("carrier-pigeon", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
}

func TestConsumeOptions(t *testing.T) {
	co := newConsumeOptions(nil, WithConcurrency(0), WithGroup("alerts"), WithAutoAck(true))
	assert.Equal(t, 1, co.concurrency)
	assert.Equal(t, "alerts", co.group)
	assert.True(t, co.autoAck)
}

func TestMemory_PublishConsume(t *testing.T) {
	broker := NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 2)
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- broker.Consume(ctx, "security.events", func(_ context.Context, msg Message) error {
			got <- msg
			if msg.Header("fail") == "1" {
				return errors.New("handler failed")
			}
			return nil
		}, WithAutoAck(true))
	}()

	require.Eventually(t, func() bool {
		broker.mu.RLock()
		defer broker.mu.RUnlock()
		return len(broker.subs["security.events"]) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, broker.Publish(ctx, "security.events", OutgoingMessage{
		Body:    []byte(`{"type":"account_locked"}`),
		Key:     []byte("42"),
		Headers: map[string]string{"event_type": "account_locked"},
	}))
	require.NoError(t, broker.Publish(ctx, "other", OutgoingMessage{Body: []byte("ignored")}))

	select {
	case msg := <-got:
		assert.JSONEq(t, `{"type":"account_locked"}`, string(msg.Body()))
		assert.Equal(t, []byte("42"), msg.Key())
		assert.Equal(t, "account_locked", msg.Header("event_type"))
		assert.Equal(t, "security.events", msg.Destination())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, broker.Publish(ctx, "security.events", OutgoingMessage{Headers: map[string]string{"fail": "1"}}))
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("failing message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-consumeErr, context.Canceled)
}

func TestMemory_Validation(t *testing.T) {
	broker := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, broker.Publish(ctx, "", OutgoingMessage{}), ErrDestinationRequired)
	assert.ErrorIs(t, broker.Consume(ctx, "x", nil), ErrHandlerRequired)
	assert.ErrorIs(t, broker.Consume(ctx, "", func(context.Context, Message) error { return nil }), ErrDestinationRequired)

	require.NoError(t, broker.Close())
	assert.True(t, IsClosed(broker.Publish(ctx, "x", OutgoingMessage{})))
}

func TestCallHandlerWithRecover(t *testing.T) {
	err := callHandlerWithRecover(context.Background(), "memory", func() error { panic("boom") })
	assert.ErrorContains(t, err, "panic in memory handler")
}
