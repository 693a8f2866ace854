package pubsub

import (
	"context"
	"sync"
)

// Buffer per subscriber. A subscriber that falls this far behind starts
// losing events rather than blocking publishers.
const subscriberBuffer = 32

// MemoryBroker is an in-process Broker. Channels exist implicitly: publishing
// to a channel with no subscribers is a no-op, subscribing to a never-seen
// channel just registers interest.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

// NewMemoryBroker creates a ready-to-use in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: map[string]map[*memorySubscription]struct{}{},
	}
}

// Publish sends ev to every current subscriber of channel. Sends never
// block: a subscriber with a full buffer misses the event.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[channel] {
		select {
		case sub.events <- ev:
		default:
			logger.Printf("Subscriber lagging on %q, dropped event %s", channel, ev.ID)
		}
	}
	return nil
}

// Subscribe registers a new subscription on channel.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		events:  make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = map[*memorySubscription]struct{}{}
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	broker    *MemoryBroker
	channel   string
	events    chan Event
	closeOnce sync.Once
}

func (s *memorySubscription) Events() <-chan Event {
	return s.events
}

// Close unregisters the subscription and closes its events channel. The
// broker lock is held while closing so no Publish can race a send into a
// closed channel.
func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		b := s.broker
		b.mu.Lock()
		if subs, ok := b.subs[s.channel]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(b.subs, s.channel)
			}
		}
		close(s.events)
		b.mu.Unlock()
	})
	return nil
}
