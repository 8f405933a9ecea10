package realtime

import (
	"context"
	"sync"

	"jamsync/models"
)

// MemoryBroadcaster is an in-process topic fan-out. It backs keyless
// single-node deployments and tests, and serves as the local dispatch
// layer of the PubNub broadcaster.
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]chan models.Delta

	// Bridge hooks: invoked when a topic gains its first subscriber or
	// loses its last one. Nil outside the PubNub bridge.
	onFirst func(topic string)
	onLast  func(topic string)
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{
		subs: make(map[string]map[*Subscription]chan models.Delta),
	}
}

func (b *MemoryBroadcaster) Publish(ctx context.Context, topic string, delta models.Delta) error {
	b.dispatch(topic, delta)
	return nil
}

func (b *MemoryBroadcaster) Subscribe(topic string) (*Subscription, error) {
	ch := make(chan models.Delta, subscriptionBuffer)

	sub := &Subscription{C: ch, topic: topic}
	sub.unsub = func() { b.remove(topic, sub, ch) }

	b.mu.Lock()
	first := len(b.subs[topic]) == 0
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]chan models.Delta)
	}
	b.subs[topic][sub] = ch
	onFirst := b.onFirst
	b.mu.Unlock()

	if first && onFirst != nil {
		onFirst(topic)
	}

	return sub, nil
}

// dispatch sends to every subscriber without blocking: a full buffer
// means the delivery is dropped for that subscriber (at-most-once).
func (b *MemoryBroadcaster) dispatch(topic string, delta models.Delta) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- delta:
		default:
		}
	}
}

func (b *MemoryBroadcaster) remove(topic string, sub *Subscription, ch chan models.Delta) {
	b.mu.Lock()
	subs, ok := b.subs[topic]
	if ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
	}
	last := ok && len(subs) == 0
	onLast := b.onLast
	b.mu.Unlock()

	close(ch)

	if last && onLast != nil {
		onLast(topic)
	}
}

// SubscriberCount reports the current number of subscribers on a topic.
func (b *MemoryBroadcaster) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
