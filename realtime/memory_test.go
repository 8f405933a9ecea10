package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamsync/models"
)

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "session:abc", SessionTopic("abc"))
	assert.Equal(t, "reactions:abc", ReactionTopic("abc"))
}

func TestMemoryBroadcaster_FanOut(t *testing.T) {
	b := NewMemoryBroadcaster()

	sub1, err := b.Subscribe(SessionTopic("jam-1"))
	require.NoError(t, err)
	sub2, err := b.Subscribe(SessionTopic("jam-1"))
	require.NoError(t, err)
	other, err := b.Subscribe(SessionTopic("jam-2"))
	require.NoError(t, err)

	delta := models.Delta{Type: models.DeltaPlayback, SessionID: "jam-1", Timestamp: time.Now()}
	require.NoError(t, b.Publish(context.Background(), SessionTopic("jam-1"), delta))

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case got := <-sub.C:
			assert.Equal(t, models.DeltaPlayback, got.Type)
			assert.Equal(t, "jam-1", got.SessionID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive delta")
		}
	}

	select {
	case <-other.C:
		t.Fatal("delta leaked across topics")
	default:
	}
}

func TestMemoryBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBroadcaster()

	// The channel carries no state: publishing into silence is fine.
	err := b.Publish(context.Background(), SessionTopic("nobody"), models.Delta{Type: models.DeltaReaction})
	assert.NoError(t, err)
}

func TestMemoryBroadcaster_CloseIsIdempotent(t *testing.T) {
	b := NewMemoryBroadcaster()

	sub, err := b.Subscribe(SessionTopic("jam-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount(SessionTopic("jam-1")))

	sub.Close()
	sub.Close()
	sub.Close()

	assert.Equal(t, 0, b.SubscriberCount(SessionTopic("jam-1")))

	// Channel is closed after unsubscribe.
	_, open := <-sub.C
	assert.False(t, open)
}

func TestMemoryBroadcaster_ClosedSubscriberReceivesNothing(t *testing.T) {
	b := NewMemoryBroadcaster()

	sub, err := b.Subscribe(SessionTopic("jam-1"))
	require.NoError(t, err)
	sub.Close()

	require.NoError(t, b.Publish(context.Background(), SessionTopic("jam-1"), models.Delta{Type: models.DeltaPlayback}))

	_, open := <-sub.C
	assert.False(t, open)
}

func TestMemoryBroadcaster_SlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	b := NewMemoryBroadcaster()

	sub, err := b.Subscribe(SessionTopic("jam-1"))
	require.NoError(t, err)

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			b.Publish(context.Background(), SessionTopic("jam-1"), models.Delta{Type: models.DeltaReaction})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}

	// Exactly the buffered messages survive; the rest were dropped.
	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriptionBuffer, received)
	sub.Close()
}

func TestMemoryBroadcaster_BridgeHooks(t *testing.T) {
	b := NewMemoryBroadcaster()

	var firsts, lasts []string
	b.onFirst = func(topic string) { firsts = append(firsts, topic) }
	b.onLast = func(topic string) { lasts = append(lasts, topic) }

	sub1, _ := b.Subscribe("session:x")
	sub2, _ := b.Subscribe("session:x")

	assert.Equal(t, []string{"session:x"}, firsts)

	sub1.Close()
	assert.Empty(t, lasts)

	sub2.Close()
	assert.Equal(t, []string{"session:x"}, lasts)
}
