package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/simplechat/relay/pubsub"
)

// Rooms is the global registry of rooms, created lazily on first join and
// never destroyed while the process runs.
type Rooms struct {
	broker pubsub.Broker

	mu     sync.Mutex
	lookup map[string]*Room
}

// NewRooms creates an empty registry over a broker.
func NewRooms(broker pubsub.Broker) *Rooms {
	return &Rooms{
		broker: broker,
		lookup: map[string]*Room{},
	}
}

// Get returns an existing room.
func (rs *Rooms) Get(name string) (*Room, bool) {
	rs.mu.Lock()
	r, ok := rs.lookup[name]
	rs.mu.Unlock()
	return r, ok
}

// GetOrCreate returns the room registered under name, creating it and
// starting its delivery loop on first reference. The whole operation holds
// the registry lock, so concurrent joins for the same unseen name get the
// same room and exactly one delivery loop. The subscription is established
// before GetOrCreate returns; no event published afterwards can be missed.
func (rs *Rooms) GetOrCreate(ctx context.Context, name string) (*Room, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if r, ok := rs.lookup[name]; ok {
		return r, nil
	}

	r := newRoom(name, rs.broker)
	sub, err := rs.broker.Subscribe(ctx, name)
	if err != nil {
		return nil, err
	}
	r.sub = sub
	go r.serve()

	rs.lookup[name] = r
	logger.Printf("Created room %q", name)
	return r, nil
}

// List returns every room sorted by name, empty ones included.
func (rs *Rooms) List() []*Room {
	rs.mu.Lock()
	r := make([]*Room, 0, len(rs.lookup))
	for _, room := range rs.lookup {
		r = append(r, room)
	}
	rs.mu.Unlock()

	sort.Slice(r, func(i, j int) bool { return r[i].Name() < r[j].Name() })
	return r
}

// Active returns the rooms with at least one member, sorted by name.
func (rs *Rooms) Active() []*Room {
	all := rs.List()
	active := all[:0]
	for _, room := range all {
		if room.Len() > 0 {
			active = append(active, room)
		}
	}
	return active
}

// Close stops every room's delivery loop.
func (rs *Rooms) Close() error {
	for _, room := range rs.List() {
		room.Close()
	}
	return nil
}
