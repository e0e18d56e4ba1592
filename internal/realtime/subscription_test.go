package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionDeliverAndReceive(t *testing.T) {
	sub := NewSubscription(4, nil)
	defer sub.Close()

	ev := &Event{Type: EventMessage, ConversationID: "conv-1"}
	require.True(t, sub.Deliver(ev))

	got := <-sub.Events()
	assert.Equal(t, ev, got)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	closes := 0
	sub := NewSubscription(1, func() error {
		closes++
		return nil
	})

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	assert.Equal(t, 1, closes)
}

func TestSubscriptionDeliverAfterCloseIsDropped(t *testing.T) {
	sub := NewSubscription(4, nil)
	require.NoError(t, sub.Close())

	assert.False(t, sub.Deliver(&Event{Type: EventMessage}))

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
}

func TestSubscriptionDropsWhenBufferFull(t *testing.T) {
	sub := NewSubscription(1, nil)
	defer sub.Close()

	require.True(t, sub.Deliver(&Event{Type: EventMessage, ConversationID: "a"}))
	// 缓冲已满且无人消费，投递不得阻塞发送路径
	assert.False(t, sub.Deliver(&Event{Type: EventMessage, ConversationID: "b"}))

	got := <-sub.Events()
	assert.Equal(t, "a", got.ConversationID)
}
