// Command realmsd runs the Realms telnet front end.
//
// It accepts telnet clients, negotiates the MUD client protocols and hands
// completed lines to a small lobby so the protocol layer can be exercised
// without a game behind it.
//
// Usage:
//
//	realmsd [flags]
//
// Flags:
//
//	-config string       Configuration file path
//	-listen string       Plain telnet address (overrides the file)
//	-log-level string    Log level: debug, info, warn, error
//	-protocol-log string Protocol capture file (.rlog)
//	-debug-protocol      Also print protocol events to the console
//	-interactive         Start the operator console
//
// Examples:
//
//	# Start with the built-in defaults on port 4000
//	realmsd
//
//	# Start with a config file and capture protocol traffic
//	realmsd -config /etc/realms/realmsd.yaml -protocol-log /var/log/realms.rlog
//
//	# Operator console on a test port
//	realmsd -listen :4040 -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/config"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/service"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// Options holds the command-line flags.
type Options struct {
	ConfigFile    string
	Listen        string
	LogLevel      string
	ProtocolLog   string
	DebugProtocol bool
	Interactive   bool
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&opts.Listen, "listen", "", "Plain telnet address (overrides the config file)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.ProtocolLog, "protocol-log", "", "Protocol capture file (.rlog)")
	flag.BoolVar(&opts.DebugProtocol, "debug-protocol", false, "Print protocol events to the console")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the operator console")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "realmsd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	applyFlags(file)
	if err := file.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *Console
	var out io.Writer = os.Stderr
	if opts.Interactive {
		console, err = NewConsole()
		if err != nil {
			return err
		}
		out = console.Stderr()
	}

	level, err := config.ParseLevel(file.Log.Level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	protoLogger, closeLog, err := protocolLogger(file.Log.ProtocolLog, logger)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := service.FromFile(file)
	cfg.Logger = logger
	cfg.ProtocolLogger = protoLogger
	cfg.CatalogEntries = lobbyEntries()
	if file.TLS.Enabled {
		cfg.TLS, err = transport.LoadTLSConfig(file.TLS.Cert, file.TLS.Key)
		if err != nil {
			return err
		}
	}

	lobby := NewLobby()
	svc, err := service.New(cfg, lobby)
	if err != nil {
		return err
	}
	lobby.svc = svc

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	logger.Info("realmsd started",
		"listen", svc.Addrs(),
		"server_id", svc.ServerID(),
		"tick", cfg.Tick,
	)

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	if console != nil {
		console.svc = svc
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
		cancel()
	case <-ctx.Done():
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("run loop ended", "error", err)
	}
	if err := svc.Stop(); err != nil {
		logger.Warn("stop failed", "error", err)
	}
	logger.Info("shutdown complete", "uptime", svc.Uptime().Round(time.Second))
	return nil
}

// applyFlags overlays explicitly set flags on the loaded file.
func applyFlags(file *config.Config) {
	if opts.Listen != "" {
		file.Listen = opts.Listen
	}
	if opts.LogLevel != "" {
		file.Log.Level = opts.LogLevel
	}
	if opts.ProtocolLog != "" {
		file.Log.ProtocolLog = opts.ProtocolLog
	}
}

// protocolLogger builds the protocol event sink from the capture path and
// the debug flag. The returned func closes the capture file.
func protocolLogger(path string, logger *slog.Logger) (log.Logger, func(), error) {
	var capture log.Logger
	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("protocol log: %w", err)
		}
		capture = fl
		logger.Info("protocol capture enabled", "path", fl.Path())
	}
	var debug log.Logger
	if opts.DebugProtocol {
		debug = log.NewSlogAdapter(logger)
	}

	sink := log.Combine(capture, debug)
	closeFn := func() {
		c, ok := sink.(io.Closer)
		if !ok {
			return
		}
		if err := c.Close(); err != nil {
			logger.Warn("closing protocol log", "error", err)
		}
	}
	return sink, closeFn, nil
}
