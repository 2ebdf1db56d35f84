package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/discovery"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/service"
)

// callTimeout bounds how long the console waits for the tick loop.
const callTimeout = 5 * time.Second

// Console is the operator command line. Every service access goes through
// Service.Call so it runs on the tick goroutine.
type Console struct {
	svc *service.Service
	rl  *readline.Instance
}

// NewConsole creates the readline instance. The service is attached once
// it exists.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "realms> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("who"),
			readline.PcItem("info"),
			readline.PcItem("stats"),
			readline.PcItem("kick"),
			readline.PcItem("broadcast"),
			readline.PcItem("servers"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Stderr returns a writer that does not disturb the prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run reads commands until quit, EOF or ctx ends.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(input, " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(cmd) {
		case "help", "?":
			c.printHelp()
		case "who", "w":
			c.cmdWho(ctx)
		case "info", "i":
			c.cmdInfo(ctx, rest)
		case "stats", "s":
			c.cmdStats(ctx)
		case "kick":
			c.cmdKick(ctx, rest)
		case "broadcast", "b":
			c.cmdBroadcast(ctx, rest)
		case "servers":
			c.cmdServers(ctx)
		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Realms Operator Commands:
  who               - List connections
  info <id>         - Show a connection's negotiated state
  stats             - Show server counters
  kick <id>         - Disconnect a connection
  broadcast <text>  - Send a message to every player
  servers           - Browse the local network for other servers
  quit              - Shut the server down`)
}

// call runs fn on the tick goroutine and reports failures.
func (c *Console) call(ctx context.Context, fn func()) bool {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := c.svc.Call(ctx, fn); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return false
	}
	return true
}

type connRow struct {
	id, host, mode, player string
	idle                   time.Duration
}

func (c *Console) cmdWho(ctx context.Context) {
	var rows []connRow
	ok := c.call(ctx, func() {
		for _, conn := range c.svc.Connections() {
			r := connRow{
				id:   conn.ID(),
				host: conn.Host(),
				mode: conn.Mode().String(),
				idle: conn.IdleFor(),
			}
			if s := conn.Session(); s != nil {
				r.player = s.Name()
			}
			rows = append(rows, r)
		}
	})
	if !ok {
		return
	}

	out := c.rl.Stdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No connections.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-8s  %-16s  %-24s  %s\n", "ID", "MODE", "PLAYER", "HOST", "IDLE")
	for _, r := range rows {
		fmt.Fprintf(out, "%-36s  %-8s  %-16s  %-24s  %s\n",
			r.id, r.mode, r.player, r.host, r.idle.Round(time.Second))
	}
}

func (c *Console) cmdInfo(ctx context.Context, id string) {
	if id == "" {
		fmt.Fprintln(c.rl.Stdout(), "Usage: info <id>")
		return
	}
	var text string
	c.call(ctx, func() {
		conn, ok := c.svc.Find(id)
		if !ok {
			text = fmt.Sprintf("No connection %s\n", id)
			return
		}
		text = describe(c.svc, conn)
	})
	fmt.Fprint(c.rl.Stdout(), text)
}

func describe(svc *service.Service, conn *connection.Conn) string {
	var b strings.Builder
	caps := conn.Capabilities()
	term := conn.Terminal()
	st := conn.Stats()

	fmt.Fprintf(&b, "Connection %s\n", conn.ID())
	fmt.Fprintf(&b, "  Address:     %s (%s)\n", conn.RemoteAddr(), conn.Host())
	fmt.Fprintf(&b, "  Mode:        %s\n", conn.Mode())
	fmt.Fprintf(&b, "  Terminal:    %s %dx%d\n", term.Type, term.Columns, term.Rows)
	fmt.Fprintf(&b, "  Colour:      %v\n", conn.ColorEnabled())
	fmt.Fprintf(&b, "  UTF-8:       %v\n", caps.UTF8)
	fmt.Fprintf(&b, "  Compressing: %v (v%d)\n", caps.Compressing, caps.CompressVersion)
	fmt.Fprintf(&b, "  Reporting:   %v\n", conn.Reporting())
	if r := conn.Reporter(); r != nil {
		fmt.Fprintf(&b, "  Reported:    %s\n", strings.Join(r.Reported(), ", "))
	}
	if target, ok := svc.Watching(conn.ID()); ok {
		fmt.Fprintf(&b, "  Watching:    %s\n", target)
	}
	fmt.Fprintf(&b, "  Bytes in:    %d\n", st.BytesIn)
	fmt.Fprintf(&b, "  Bytes out:   %d plain, %d wire\n", st.PlainOut, st.WireOut)
	return b.String()
}

func (c *Console) cmdStats(ctx context.Context) {
	var st service.Stats
	if !c.call(ctx, func() { st = c.svc.Stats() }) {
		return
	}
	out := c.rl.Stdout()
	fmt.Fprintf(out, "Uptime:       %s\n", st.Uptime.Round(time.Second))
	fmt.Fprintf(out, "Ticks:        %d\n", st.Ticks)
	fmt.Fprintf(out, "Connections:  %d (%d playing, %d observing)\n", st.Connections, st.Players, st.Observers)
	fmt.Fprintf(out, "Compressed:   %d\n", st.Compressed)
	fmt.Fprintf(out, "Reporting:    %d\n", st.Reporting)
	fmt.Fprintf(out, "Bytes in:     %d\n", st.BytesIn)
	fmt.Fprintf(out, "Bytes out:    %d plain, %d wire (%.2f)\n", st.PlainOut, st.WireOut, st.Ratio())
	fmt.Fprintf(out, "Hosts cached: %d\n", st.HostnamesCached)
}

func (c *Console) cmdKick(ctx context.Context, id string) {
	if id == "" {
		fmt.Fprintln(c.rl.Stdout(), "Usage: kick <id>")
		return
	}
	found := false
	c.call(ctx, func() {
		conn, ok := c.svc.Find(id)
		if !ok {
			return
		}
		found = true
		conn.Enqueue("\n^rYou have been disconnected by an operator.^x\n")
		c.svc.Disconnect(conn, "kicked")
	})
	if found {
		fmt.Fprintf(c.rl.Stdout(), "Kicked %s\n", id)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "No connection %s\n", id)
	}
}

func (c *Console) cmdBroadcast(ctx context.Context, text string) {
	if text == "" {
		fmt.Fprintln(c.rl.Stdout(), "Usage: broadcast <text>")
		return
	}
	var n int
	if c.call(ctx, func() { n = c.svc.Broadcast("\n^Y[Broadcast] " + text + "^x\n") }) {
		fmt.Fprintf(c.rl.Stdout(), "Sent to %d players\n", n)
	}
}

func (c *Console) cmdServers(ctx context.Context) {
	cfg := discovery.DefaultBrowserConfig()
	cfg.BrowseTimeout = 3 * time.Second

	browser, err := discovery.NewMDNSBrowser(cfg)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	defer browser.Stop()

	fmt.Fprintln(c.rl.Stdout(), "Browsing for servers...")
	found, err := browser.BrowseAll(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if len(found) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No servers found.")
		return
	}
	for _, s := range found {
		name := s.InstanceName
		if s.Info.Name != "" {
			name = s.Info.Name
		}
		fmt.Fprintf(c.rl.Stdout(), "  %-24s %s:%d  %d players\n", name, s.Host, s.Port, s.Info.Players)
	}
}
