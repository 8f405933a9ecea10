package realtime

import (
	"context"
	"fmt"
	"sync"

	"jamsync/models"
)

// subscriptionBuffer bounds how far a slow consumer may lag before
// deliveries are dropped. Delivery is at-most-once per subscriber.
const subscriptionBuffer = 64

// Broadcaster is the pub/sub substrate the session core publishes into.
// It carries no state of its own: a message published while nobody is
// subscribed is simply gone.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, delta models.Delta) error
	Subscribe(topic string) (*Subscription, error)
}

// SessionTopic carries authoritative state, roster and queue deltas.
func SessionTopic(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// ReactionTopic carries high-frequency ephemeral reaction traffic,
// separated from the session topic to avoid head-of-line blocking.
func ReactionTopic(sessionID string) string {
	return fmt.Sprintf("reactions:%s", sessionID)
}

// Subscription is a long-lived listen on one topic. Close is idempotent
// and releases the delta channel; callers must stop reading C afterwards.
type Subscription struct {
	C     <-chan models.Delta
	topic string

	once  sync.Once
	unsub func()
}

func (s *Subscription) Topic() string {
	return s.topic
}

func (s *Subscription) Close() {
	s.once.Do(s.unsub)
}
