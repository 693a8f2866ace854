package chat

import (
	"context"
	"sync"
	"time"

	"github.com/simplechat/relay/pubsub"
)

const historyLen = 20

// Concurrency cap on fan-out writes per room. Writes for one event are
// dispatched concurrently but never more than this many at once.
const fanoutConcurrency = 8

// Room is a named broadcast group backed by one broker channel. Members
// receive every event published to the channel except their own, written to
// their connections by the room's delivery loop.
type Room struct {
	name    string
	broker  pubsub.Broker
	history *History
	created time.Time

	mu      sync.Mutex
	members []*Session // insertion order, for deterministic listings

	sem       chan struct{}
	sub       pubsub.Subscription
	closeOnce sync.Once
}

func newRoom(name string, broker pubsub.Broker) *Room {
	return &Room{
		name:    name,
		broker:  broker,
		history: NewHistory(historyLen),
		created: time.Now(),
		sem:     make(chan struct{}, fanoutConcurrency),
	}
}

// Name of the room.
func (r *Room) Name() string {
	return r.name
}

// Created returns when the room was first joined into existence.
func (r *Room) Created() time.Time {
	return r.created
}

// Len returns the current member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a snapshot of the current members in insertion order.
func (r *Room) Members() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Session{}, r.members...)
}

// Names returns the member names in insertion order.
func (r *Room) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.members))
	for i, m := range r.members {
		names[i] = m.Name()
	}
	return names
}

func (r *Room) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m == s {
			return
		}
	}
	r.members = append(r.members, s)
}

func (r *Room) remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m == s {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// Publish posts an event on the room's broker channel. This is the sole
// path by which members learn of new room content, system notices included.
func (r *Room) Publish(ctx context.Context, sender, body string) error {
	return r.broker.Publish(ctx, r.name, pubsub.NewEvent(sender, body))
}

// History returns up to num recent events, oldest first.
func (r *Room) History(num int) []pubsub.Event {
	return r.history.Get(num)
}

// serve drains the room's subscription and fans each event out. One loop
// per room, started at creation; it exits when the subscription closes.
func (r *Room) serve() {
	for ev := range r.sub.Events() {
		r.deliver(ev)
	}
	logger.Printf("Delivery loop for %q stopped", r.name)
}

// deliver writes one event to every member except its sender. Writes are
// dispatched concurrently under the room's cap and are not awaited, so one
// slow member cannot stall the loop. A failed write silently removes the
// member; the publisher never hears about it.
func (r *Room) deliver(ev pubsub.Event) {
	r.history.Add(ev)

	for _, m := range r.Members() {
		if m.Name() == ev.Sender {
			// Skip self
			continue
		}
		m := m
		r.sem <- struct{}{}
		go func() {
			defer func() { <-r.sem }()
			if err := m.Send(ev.Body); err != nil {
				r.prune(m, err)
			}
		}()
	}
}

func (r *Room) prune(m *Session, err error) {
	if r.remove(m) {
		logger.Printf("Dropped %s from %q: %v", m.Name(), r.name, err)
	}
	m.clearRoomIf(r.name)
	m.Close()
}

// Close stops the delivery loop by tearing down the subscription. Rooms are
// never closed during normal operation; this is the explicit shutdown path
// for process teardown and tests.
func (r *Room) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.sub != nil {
			err = r.sub.Close()
		}
	})
	return err
}
