package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simplechat/relay/pubsub"
)

// Hub owns the user and room registries and interprets input lines into
// actions against them. It is shared by every front-end that can produce
// sessions.
type Hub struct {
	Users *Users
	Rooms *Rooms

	commands Commands
}

// NewHub creates a hub over a broker with the default command set.
func NewHub(broker pubsub.Broker) *Hub {
	h := &Hub{
		Users: NewUsers(),
		Rooms: NewRooms(broker),
	}
	h.commands = Commands{}
	InitCommands(&h.commands)
	return h
}

// Help returns the rendered command listing shown after login.
func (h *Hub) Help() string {
	return h.commands.Help()
}

// HandleInput maps one trimmed, non-empty input line to an action.
// Direct messages take priority over everything else; then registered
// commands; anything else with a leading slash is unknown; plain text goes
// to the current room.
func (h *Hub) HandleInput(ctx context.Context, s *Session, line string) {
	if strings.HasPrefix(line, "@") {
		h.direct(ctx, s, line)
		return
	}

	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line)
		switch err := h.commands.Run(ctx, h, s, fields[0], fields[1:]); {
		case err == nil:
		case errors.Is(err, ErrUnknownCommand):
			s.Send(fmt.Sprintf("Unknown command: %s", fields[0]))
		default:
			s.Send(fmt.Sprintf("Err: %s", err))
			logger.Printf("Command %s by %s failed: %v", fields[0], s.Name(), err)
		}
		return
	}

	room := s.Room()
	if room == "" {
		s.Send("Join a room first. Try /rooms or /join <name>.")
		return
	}
	r, ok := h.Rooms.Get(room)
	if !ok {
		// Room vanished under us; back to the lobby.
		s.clearRoomIf(room)
		s.Send("Join a room first. Try /rooms or /join <name>.")
		return
	}
	if err := r.Publish(ctx, s.Name(), fmt.Sprintf("%s: %s", s.Name(), line)); err != nil {
		logger.Printf("Publish by %s to %q failed: %v", s.Name(), room, err)
	}
}

// direct delivers a private message straight to the target's connection.
// No room routing, no broker. An unknown target or missing text reads as an
// unknown command to the sender.
func (h *Hub) direct(ctx context.Context, s *Session, line string) {
	name, text, ok := strings.Cut(line[1:], " ")
	text = strings.TrimSpace(text)
	if !ok || name == "" || text == "" {
		s.Send(fmt.Sprintf("Unknown command: @%s", name))
		return
	}
	target, found := h.Users.Get(name)
	if !found {
		s.Send(fmt.Sprintf("Unknown command: @%s", name))
		return
	}
	if err := target.Send(fmt.Sprintf("[PM from %s] %s", s.Name(), text)); err != nil {
		// Target's connection is dead, clean it up like a quit.
		h.Quit(ctx, target)
	}
}

// Join moves a session into a room, creating the room on first reference
// and implicitly leaving any current room first.
func (h *Hub) Join(ctx context.Context, s *Session, name string) error {
	if s.Room() == name {
		s.Send(fmt.Sprintf("You are already in %s.", name))
		return nil
	}
	if cur := s.Room(); cur != "" {
		h.leaveRoom(ctx, s, cur)
	}

	r, err := h.Rooms.GetOrCreate(ctx, name)
	if err != nil {
		return err
	}
	r.add(s)
	s.setRoom(name)

	// Replay what the joiner just missed, then the member listing, only to
	// the joining session. The join notice itself rides the broker.
	for _, ev := range r.History(historyLen) {
		s.Send(ev.Body)
	}
	s.Send(fmt.Sprintf("Members of %s: %s", name, strings.Join(r.Names(), ", ")))

	return r.Publish(ctx, SystemID, fmt.Sprintf("%s joined. (Connected: %d)", s.Name(), r.Len()))
}

// Leave removes the session from its current room. A no-op in the lobby.
func (h *Hub) Leave(ctx context.Context, s *Session) {
	if cur := s.Room(); cur != "" {
		h.leaveRoom(ctx, s, cur)
	}
}

func (h *Hub) leaveRoom(ctx context.Context, s *Session, name string) {
	r, ok := h.Rooms.Get(name)
	if !ok {
		s.clearRoomIf(name)
		return
	}
	if err := r.Publish(ctx, SystemID, fmt.Sprintf("%s left.", s.Name())); err != nil {
		logger.Printf("Leave notice for %s to %q failed: %v", s.Name(), name, err)
	}
	r.remove(s)
	s.clearRoomIf(name)
}

// Quit disconnects a session: implicit leave, removal from the user
// registry, connection closed.
func (h *Hub) Quit(ctx context.Context, s *Session) {
	h.Leave(ctx, s)
	h.Users.Remove(s.Name())
	s.Close()
	logger.Printf("%s disconnected", s.Name())
}
