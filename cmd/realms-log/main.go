// Command realms-log is a tool for viewing and analyzing protocol captures.
//
// Captures are written by realmsd when started with -protocol-log or with
// log.protocol_log set in its configuration file.
//
// Usage:
//
//	realms-log <command> [flags] <file.rlog>
//
// Commands are view, export, filter and stats. All of them accept the same
// selection flags (-conn-id, -player, -option, -layer, -direction,
// -category, -time-start, -time-end).
//
// Examples:
//
//	# View all events
//	realms-log view server.rlog
//
//	# View only reporting traffic sent to clients
//	realms-log view -option msdp -direction out server.rlog
//
//	# Export to JSONL
//	realms-log export -format jsonl server.rlog
//
//	# Keep one player's events
//	realms-log filter -player Gandalf -o gandalf.rlog server.rlog
//
//	# Summarise one player's session
//	realms-log stats -player Gandalf server.rlog
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/RealmsMud/RealmsCode-sub003/cmd/realms-log/commands"
)

// subcommand is one realms-log verb. setup registers verb-specific flags
// and returns the action to run on the capture path.
type subcommand struct {
	name    string
	summary string
	setup   func(fs *flag.FlagSet, sel *commands.Selection) func(path string) error
}

var subcommands = []subcommand{
	{"view", "Print events in human-readable form", setupView},
	{"export", "Write events as JSON lines or CSV", setupExport},
	{"filter", "Copy selected events to a new capture", setupFilter},
	{"stats", "Summarise events per layer, option and connection", setupStats},
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	name := os.Args[1]
	switch name {
	case "-h", "-help", "--help", "help":
		printUsage(os.Stdout)
		return
	}
	for _, sc := range subcommands {
		if sc.name == name {
			if err := sc.run(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "realms-log %s: %v\n", name, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintf(os.Stderr, "realms-log: unknown command %q\n\n", name)
	printUsage(os.Stderr)
	os.Exit(2)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "realms-log - protocol capture analyzer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  realms-log <command> [flags] <file.rlog>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, sc := range subcommands {
		fmt.Fprintf(w, "  %-8s %s\n", sc.name, sc.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Every command accepts the selection flags; run "realms-log <command> -help" to list them.`)
}

func (sc subcommand) run(args []string) error {
	fs := flag.NewFlagSet(sc.name, flag.ExitOnError)
	var sel commands.Selection
	sel.Register(fs)
	action := sc.setup(fs, &sel)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "realms-log %s - %s\n\nUsage:\n  realms-log %s [flags] <file.rlog>\n\nFlags:\n", sc.name, sc.summary, sc.name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	return action(fs.Arg(0))
}

func setupView(_ *flag.FlagSet, sel *commands.Selection) func(string) error {
	return func(path string) error {
		return commands.RunView(path, *sel, os.Stdout)
	}
}

func setupExport(fs *flag.FlagSet, sel *commands.Selection) func(string) error {
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	return func(path string) error {
		return commands.RunExport(path, *sel, *format, *output)
	}
}

func setupFilter(fs *flag.FlagSet, sel *commands.Selection) func(string) error {
	output := fs.String("o", "", "Output capture (required, must not exist)")
	return func(path string) error {
		if *output == "" {
			return errors.New("output capture (-o) required")
		}
		n, err := commands.RunFilter(path, *sel, *output)
		if err != nil {
			return err
		}
		fmt.Printf("Filtered %d events to %s\n", n, *output)
		return nil
	}
}

func setupStats(_ *flag.FlagSet, sel *commands.Selection) func(string) error {
	return func(path string) error {
		return commands.RunStats(path, *sel, os.Stdout)
	}
}
