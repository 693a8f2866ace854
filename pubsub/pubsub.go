/*
Package pubsub provides the named-channel broker that backs room fan-out.

A Broker knows nothing about chat: it moves opaque Events between named
channels with at-most-once delivery and no ordering guarantee across
channels. Two implementations are provided, an in-memory broker for a
single process and a Redis-backed broker for sharing channels between
processes.
*/
package pubsub

import (
	"context"

	"github.com/google/uuid"
)

// Event is one published item on a channel.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
}

// NewEvent creates an Event with a fresh ID.
func NewEvent(sender, body string) Event {
	return Event{
		ID:     uuid.New(),
		Sender: sender,
		Body:   body,
	}
}

// Subscription is a live feed of events published to one channel after the
// subscription was established. It is not restartable: once closed, a new
// Subscribe call is needed.
type Subscription interface {
	// Events yields published events. The channel is closed when the
	// subscription is closed.
	Events() <-chan Event

	// Close tears down the subscription and closes the events channel.
	Close() error
}

// Broker is a named-channel publish/subscribe transport.
type Broker interface {
	// Publish posts an event on a channel. Delivery is at-most-once;
	// subscribers that cannot keep up may miss events.
	Publish(ctx context.Context, channel string, ev Event) error

	// Subscribe opens a feed of events published to channel from now on.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}
