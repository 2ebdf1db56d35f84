package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/service"
)

const (
	minNameLen = 3
	maxNameLen = 16
)

const banner = "\n^W  The Realms^x\n  A protocol test lobby.\n\n"

// player is the session attached once a name is chosen.
type player struct {
	name  string
	notes []string
}

func (p *player) Name() string        { return p.name }
func (p *player) Authenticated() bool { return true }

// Lobby is a minimal command layer: players pick a name, chat, watch each
// other and write notes.
type Lobby struct {
	svc     *service.Service
	players map[string]*player // by connection id
}

var _ service.CommandHandler = (*Lobby)(nil)

// NewLobby creates an empty lobby. The service is attached after creation.
func NewLobby() *Lobby {
	return &Lobby{players: make(map[string]*player)}
}

// lobbyEntries adds the character variables to the reporting catalog.
func lobbyEntries() []msdp.Entry {
	return []msdp.Entry{
		{
			Name:            "CHARACTER_NAME",
			Reportable:      true,
			RequiresSession: true,
			Value: func(s msdp.Subject) msdp.Value {
				if sess := s.Session(); sess != nil {
					return msdp.String(sess.Name())
				}
				return msdp.String("")
			},
		},
		{
			Name:            "NOTES",
			Reportable:      true,
			RequiresSession: true,
			Interval:        10,
			Value: func(s msdp.Subject) msdp.Value {
				p, ok := s.Session().(*player)
				if !ok {
					return msdp.Array()
				}
				return msdp.Strings(p.notes...)
			},
		},
	}
}

func (l *Lobby) Connected(c *connection.Conn) {
	c.Enqueue(banner)
	c.Enqueue("What is your name? ")
}

func (l *Lobby) Login(c *connection.Conn, line string) {
	name, err := l.checkName(line)
	if err != nil {
		c.Printf("^r%s^x\nWhat is your name? ", err)
		return
	}

	p := &player{name: name}
	l.players[c.ID()] = p
	c.Attach(p)
	c.SetPrompt(func() string { return "\n^c>^x " })

	c.Printf("Welcome, ^W%s^x. Type ^chelp^x for commands.\n", name)
	l.announce(c, fmt.Sprintf("^g%s has arrived.^x\n", name))
}

func (l *Lobby) Command(c *connection.Conn, line string) {
	p := l.players[c.ID()]
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
	case "help", "?":
		c.Enqueue(lobbyHelp)
	case "who":
		l.cmdWho(c)
	case "say", "'":
		if rest == "" {
			c.Enqueue("Say what?\n")
			return
		}
		c.Printf("You say, \"%s\"\n", rest)
		l.announce(c, fmt.Sprintf("%s says, \"%s\"\n", p.name, rest))
	case "spy":
		l.cmdSpy(c, rest)
	case "unspy":
		l.cmdUnspy(c)
	case "note":
		c.Enqueue("Enter note lines. End with a single '.'\n")
		c.SetMode(connection.ModeEditing)
	case "notes":
		if len(p.notes) == 0 {
			c.Enqueue("You have no notes.\n")
			return
		}
		for i, n := range p.notes {
			c.Printf("%2d. %s\n", i+1, n)
		}
	case "quit":
		c.Enqueue("Farewell.\n")
		l.svc.Disconnect(c, "quit")
	default:
		c.Printf("Unknown command: %s\n", verb)
	}
}

func (l *Lobby) Edit(c *connection.Conn, line string) {
	if strings.TrimSpace(line) == "." {
		c.Enqueue("Note saved.\n")
		c.SetMode(connection.ModePlaying)
		return
	}
	if p, ok := l.players[c.ID()]; ok {
		p.notes = append(p.notes, line)
	}
}

func (l *Lobby) Disconnected(c *connection.Conn, reason string) {
	p, ok := l.players[c.ID()]
	if !ok {
		return
	}
	delete(l.players, c.ID())
	l.announce(c, fmt.Sprintf("^y%s has left (%s).^x\n", p.name, reason))
}

func (l *Lobby) cmdWho(c *connection.Conn) {
	c.Enqueue("^WPlayers^x\n")
	for _, o := range l.svc.Connections() {
		p, ok := l.players[o.ID()]
		if !ok {
			continue
		}
		flags := ""
		if o.Reporting() {
			flags += " [msdp]"
		}
		if o.Capabilities().Compressing {
			flags += " [mccp]"
		}
		c.Printf("  %-16s %s%s\n", p.name, o.Host(), flags)
	}
}

func (l *Lobby) cmdSpy(c *connection.Conn, name string) {
	target, ok := l.byName(name)
	if !ok {
		c.Printf("Nobody called %q is here.\n", name)
		return
	}
	if err := l.svc.Watch(c.ID(), target.ID()); err != nil {
		c.Printf("^r%s^x\n", err)
		return
	}
	c.Printf("You are now watching %s.\n", l.players[target.ID()].name)
}

func (l *Lobby) cmdUnspy(c *connection.Conn) {
	if _, err := l.svc.Unwatch(c.ID()); err != nil {
		c.Enqueue("You are not watching anyone.\n")
		return
	}
	c.Enqueue("You stop watching.\n")
}

// announce sends text to every player except c.
func (l *Lobby) announce(c *connection.Conn, text string) {
	for _, o := range l.svc.Connections() {
		if o.ID() == c.ID() || o.Mode() != connection.ModePlaying {
			continue
		}
		o.Enqueue(text)
	}
}

func (l *Lobby) byName(name string) (*connection.Conn, bool) {
	for id, p := range l.players {
		if strings.EqualFold(p.name, name) {
			return l.svc.Find(id)
		}
	}
	return nil, false
}

// checkName validates a requested name and normalizes its case.
func (l *Lobby) checkName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return "", fmt.Errorf("names are %d to %d letters", minNameLen, maxNameLen)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return "", errors.New("names use letters only")
		}
	}
	name = strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
	for _, p := range l.players {
		if p.name == name {
			return "", fmt.Errorf("%s is already playing", name)
		}
	}
	return name, nil
}

const lobbyHelp = `^WCommands^x
  who          list players
  say <text>   talk to everyone
  spy <name>   watch another player's screen
  unspy        stop watching
  note         write a note (end with '.')
  notes        list your notes
  quit         leave
`
