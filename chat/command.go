package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// The error returned when an unrecognized or malformed command is issued.
var ErrUnknownCommand = errors.New("unknown command")

// The error returned when a command is added without a prefix.
var ErrMissingPrefix = errors.New("command missing prefix")

// Command is a definition of a handler for a command.
type Command struct {
	// The command's key, such as /foo
	Prefix string
	// Extra help regarding arguments. Commands without one take no
	// arguments and must match exactly.
	PrefixHelp string
	// If omitted, command is hidden from Help()
	Help    string
	Handler func(ctx context.Context, h *Hub, s *Session, args []string) error
}

// Commands is a registry of available commands.
type Commands map[string]*Command

// Add will register a command. If help string is empty, it will be hidden
// from Help().
func (c Commands) Add(cmd Command) error {
	if cmd.Prefix == "" {
		return ErrMissingPrefix
	}

	c[cmd.Prefix] = &cmd
	return nil
}

// Run executes a command. Zero-argument commands match exactly: trailing
// arguments make the input unrecognizable.
func (c Commands) Run(ctx context.Context, h *Hub, s *Session, prefix string, args []string) error {
	cmd, ok := c[prefix]
	if !ok {
		return ErrUnknownCommand
	}
	if cmd.PrefixHelp == "" && len(args) > 0 {
		return ErrUnknownCommand
	}

	return cmd.Handler(ctx, h, s, args)
}

// Help will return collated help text as one string.
func (c Commands) Help() string {
	h := NewCommandsHelp(c)
	h.add(helpItem{"@NAME MESSAGE", "Send a private message."})
	return "Available commands:" + Newline + h.String()
}

// Newline separates the lines of multi-line bodies such as help listings.
const Newline = "\n"

// InitCommands registers the default command set on a registry.
func InitCommands(c *Commands) {
	c.Add(Command{
		Prefix: "/users",
		Help:   "List connected users.",
		Handler: func(ctx context.Context, h *Hub, s *Session, args []string) error {
			names := []string{}
			for _, u := range h.Users.List() {
				name := u.Name()
				if u == s {
					name += " (you)"
				}
				names = append(names, name)
			}
			s.Send(fmt.Sprintf("%d connected: %s", len(names), strings.Join(names, ", ")))
			return nil
		},
	})

	c.Add(Command{
		Prefix: "/rooms",
		Help:   "List active rooms.",
		Handler: func(ctx context.Context, h *Hub, s *Session, args []string) error {
			active := h.Rooms.Active()
			if len(active) == 0 {
				s.Send("No rooms yet. Use /join <name> to create one.")
				return nil
			}
			s.Send("Active rooms:")
			for _, r := range active {
				s.Send(fmt.Sprintf(" * %s (%d)", r.Name(), r.Len()))
			}
			return nil
		},
	})

	c.Add(Command{
		Prefix:     "/join",
		PrefixHelp: "NAME",
		Help:       "Join a room, creating it if needed.",
		Handler: func(ctx context.Context, h *Hub, s *Session, args []string) error {
			if len(args) != 1 {
				return ErrUnknownCommand
			}
			name := SanitizeName(args[0])
			if name == "" {
				return ErrUnknownCommand
			}
			return h.Join(ctx, s, name)
		},
	})

	c.Add(Command{
		Prefix: "/leave",
		Help:   "Leave the current room.",
		Handler: func(ctx context.Context, h *Hub, s *Session, args []string) error {
			h.Leave(ctx, s)
			return nil
		},
	})

	c.Add(Command{
		Prefix: "/quit",
		Help:   "Disconnect from the chat.",
		Handler: func(ctx context.Context, h *Hub, s *Session, args []string) error {
			h.Quit(ctx, s)
			return nil
		},
	})
}
