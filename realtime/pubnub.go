package realtime

import (
	"context"
	"encoding/json"
	"log"

	pubnub "github.com/pubnub/go"

	"jamsync/models"
	"jamsync/utils"
)

// PubNubBroadcaster publishes deltas to PubNub channels and bridges
// incoming messages back into local subscriptions. The publish path sits
// behind a circuit breaker so a dead keyset fails fast instead of
// stalling every mutation for its full timeout.
type PubNubBroadcaster struct {
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
	local   *MemoryBroadcaster
}

func NewPubNubBroadcaster(pn *pubnub.PubNub) *PubNubBroadcaster {
	b := &PubNubBroadcaster{
		pn:      pn,
		breaker: utils.NewCircuitBreaker("pubnub-publish"),
		local:   NewMemoryBroadcaster(),
	}

	// Remote channels are only held open while someone local listens.
	b.local.onFirst = func(topic string) {
		b.pn.Subscribe().Channels([]string{topic}).Execute()
	}
	b.local.onLast = func(topic string) {
		b.pn.Unsubscribe().Channels([]string{topic}).Execute()
	}

	listener := pubnub.NewListener()
	b.pn.AddListener(listener)
	go b.listen(listener)

	return b
}

func (b *PubNubBroadcaster) Publish(ctx context.Context, topic string, delta models.Delta) error {
	return b.breaker.Execute(func() error {
		_, _, err := b.pn.Publish().
			Channel(topic).
			Message(delta).
			Execute()
		return err
	})
}

func (b *PubNubBroadcaster) Subscribe(topic string) (*Subscription, error) {
	return b.local.Subscribe(topic)
}

func (b *PubNubBroadcaster) listen(listener *pubnub.Listener) {
	for message := range listener.Message {
		delta, err := decodeDelta(message.Message)
		if err != nil {
			log.Printf("pubnub: dropping undecodable message on %s: %v", message.Channel, err)
			continue
		}
		b.local.dispatch(message.Channel, delta)
	}
}

// decodeDelta round-trips the SDK's map form through JSON into a Delta.
func decodeDelta(raw any) (models.Delta, error) {
	var delta models.Delta

	data, err := json.Marshal(raw)
	if err != nil {
		return delta, err
	}

	err = json.Unmarshal(data, &delta)
	return delta, err
}
