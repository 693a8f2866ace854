package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroker is a Broker backed by Redis PubSub. Every room channel maps to
// one Redis channel under a shared key prefix, so several relay processes
// pointed at the same Redis can fan out to their local connections
// independently.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

// NewRedisBroker wraps an existing Redis client. All channels are namespaced
// under prefix.
func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	return &RedisBroker{
		client: client,
		prefix: prefix,
	}
}

func (b *RedisBroker) key(channel string) string {
	return b.prefix + channel
}

// Publish JSON-encodes ev and posts it on the Redis channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.key(channel), data).Err()
}

// Subscribe opens a Redis subscription and decodes incoming payloads.
// Receive confirmation is awaited so no event published after Subscribe
// returns can be missed.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, b.key(channel))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan Event, subscriberBuffer),
	}
	go sub.consume(ps.Channel())
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	events    chan Event
	closeOnce sync.Once
}

func (s *redisSubscription) consume(in <-chan *redis.Message) {
	defer close(s.events)
	for msg := range in {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Printf("Dropping undecodable payload on %q: %v", msg.Channel, err)
			continue
		}
		s.events <- ev
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes. The consume goroutine exits when go-redis closes the
// message channel, which in turn closes the events channel.
func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ps.Close()
	})
	return err
}
