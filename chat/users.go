package chat

import (
	"errors"
	"sort"
	"sync"
)

// The error returned when an added name already exists in the registry.
var ErrNameTaken = errors.New("username already taken")

// The error returned when a requested user does not exist.
var ErrUserMissing = errors.New("user does not exist")

// Users is the global registry of authenticated sessions, keyed by name.
// Names are case-sensitive and unique.
type Users struct {
	sync.RWMutex
	lookup map[string]*Session
}

// NewUsers creates an empty registry.
func NewUsers() *Users {
	return &Users{
		lookup: map[string]*Session{},
	}
}

// Len returns the number of registered sessions right now.
func (u *Users) Len() int {
	u.RLock()
	defer u.RUnlock()
	return len(u.lookup)
}

// Get returns the session registered under name.
func (u *Users) Get(name string) (*Session, bool) {
	u.RLock()
	s, ok := u.lookup[name]
	u.RUnlock()
	return s, ok
}

// Add registers a session if its name is free. The check and the insert are
// one atomic step, so two logins racing for the same name cannot both win.
func (u *Users) Add(s *Session) error {
	u.Lock()
	defer u.Unlock()

	if _, found := u.lookup[s.Name()]; found {
		return ErrNameTaken
	}
	u.lookup[s.Name()] = s
	return nil
}

// Remove deletes a session from the registry.
func (u *Users) Remove(name string) error {
	u.Lock()
	defer u.Unlock()

	if _, found := u.lookup[name]; !found {
		return ErrUserMissing
	}
	delete(u.lookup, name)
	return nil
}

// List returns all sessions sorted by name.
func (u *Users) List() []*Session {
	u.RLock()
	r := make([]*Session, 0, len(u.lookup))
	for _, s := range u.lookup {
		r = append(r, s)
	}
	u.RUnlock()

	sort.Slice(r, func(i, j int) bool { return r[i].Name() < r[j].Name() })
	return r
}
