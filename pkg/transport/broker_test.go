package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	t.Run("delivers to topic subscribers", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		ch1 := make(chan Message, 1)
		ch2 := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("a", "scan", ch1))
		require.NoError(t, broker.Subscribe("b", "odom", ch2))

		require.NoError(t, broker.Publish("scan", "ranges"))

		select {
		case msg := <-ch1:
			assert.Equal(t, "scan", msg.Topic)
			assert.Equal(t, "ranges", msg.Payload)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for scan message")
		}

		select {
		case msg := <-ch2:
			t.Fatalf("odom subscriber received off-topic message: %+v", msg)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		broker := NewBroker()
		require.NoError(t, broker.Publish("scan", "ranges"))
	})

	t.Run("full channel drops and reports slow consumer", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		ch := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("a", "scan", ch))

		require.NoError(t, broker.Publish("scan", "first"))
		err := broker.Publish("scan", "second")
		require.ErrorIs(t, err, ErrSlowConsumer)

		// The first message is still intact.
		msg := <-ch
		assert.Equal(t, "first", msg.Payload)
	})

	t.Run("subscription management", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		ch := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("a", "scan", ch))
		require.Error(t, broker.Subscribe("a", "scan", ch), "duplicate subscription must fail")

		require.NoError(t, broker.Unsubscribe("a", "scan"))
		require.Error(t, broker.Unsubscribe("a", "scan"), "double unsubscribe must fail")
	})
}

func TestSession(t *testing.T) {
	t.Run("pump dispatches queued messages", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		sess := NewSession(broker)
		t.Cleanup(func() { sess.Close() })

		var got []any
		require.NoError(t, sess.Subscribe("scan", func(msg Message) {
			got = append(got, msg.Payload)
		}))

		require.NoError(t, broker.Publish("scan", 1))
		require.NoError(t, broker.Publish("scan", 2))

		assert.True(t, sess.Pump(10*time.Millisecond))
		assert.Equal(t, []any{1, 2}, got)
	})

	t.Run("pump times out on an idle feed", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		sess := NewSession(broker)
		t.Cleanup(func() { sess.Close() })
		require.NoError(t, sess.Subscribe("scan", func(Message) {}))

		start := time.Now()
		assert.False(t, sess.Pump(20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("close unsubscribes", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		sess := NewSession(broker)
		fired := false
		require.NoError(t, sess.Subscribe("scan", func(Message) { fired = true }))
		require.NoError(t, sess.Close())
		require.NoError(t, sess.Close(), "close is idempotent")

		require.NoError(t, broker.Publish("scan", "ranges"))
		sess.Pump(0)
		assert.False(t, fired)

		require.Error(t, sess.Subscribe("scan", func(Message) {}), "subscribe after close must fail")
	})
}
