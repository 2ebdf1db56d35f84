package service

import (
	"context"
	"net"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
)

// CommandHandler is the command layer. All methods run on the tick
// goroutine and must not block.
type CommandHandler interface {
	// Connected is called once the initial offers are queued.
	Connected(c *connection.Conn)

	// Login receives a line from a connection that has not logged in.
	Login(c *connection.Conn, line string)

	// Command receives a line from a playing connection.
	Command(c *connection.Conn, line string)

	// Edit receives a line from a connection editing a document.
	Edit(c *connection.Conn, line string)

	// Disconnected is called before the connection is closed.
	Disconnected(c *connection.Conn, reason string)
}

// Resolver performs reverse lookups. It is satisfied by *net.Resolver.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Compile-time check: *net.Resolver implements Resolver.
var _ Resolver = (*net.Resolver)(nil)
