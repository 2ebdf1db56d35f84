package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// csvHeader names the columns of csvRow.
var csvHeader = []string{"timestamp", "connection_id", "remote_addr", "player", "direction", "layer", "category", "type", "option", "size"}

// RunExport writes the selected events as JSON lines ("jsonl") or CSV
// ("csv") to output, or to stdout when output is empty.
func RunExport(path string, sel Selection, format, output string) error {
	var write func(io.Writer) (func(log.Event) error, func() error)
	switch format {
	case "jsonl":
		write = jsonlWriter
	case "csv":
		write = csvWriter
	default:
		return fmt.Errorf("unknown format %q (jsonl or csv)", format)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	each, finish := write(w)
	if err := sel.scan(path, each); err != nil {
		return err
	}
	return finish()
}

func jsonlWriter(w io.Writer) (func(log.Event) error, func() error) {
	enc := json.NewEncoder(w)
	each := func(ev log.Event) error { return enc.Encode(ev) }
	return each, func() error { return nil }
}

func csvWriter(w io.Writer) (func(log.Event) error, func() error) {
	cw := csv.NewWriter(w)
	headed := false
	each := func(ev log.Event) error {
		if !headed {
			headed = true
			if err := cw.Write(csvHeader); err != nil {
				return err
			}
		}
		return cw.Write(csvRow(ev))
	}
	finish := func() error {
		if !headed {
			_ = cw.Write(csvHeader)
		}
		cw.Flush()
		return cw.Error()
	}
	return each, finish
}

func csvRow(ev log.Event) []string {
	kind, option, size := "unknown", "", ""
	switch {
	case ev.Negotiation != nil:
		kind = telnet.CommandName(ev.Negotiation.Verb)
		option = optionLabel(ev.Negotiation.Option, ev.Negotiation.Name)
	case ev.Subnegotiation != nil:
		kind = "subnegotiation"
		option = optionLabel(ev.Subnegotiation.Option, ev.Subnegotiation.Name)
		size = strconv.Itoa(ev.Subnegotiation.Size)
	case ev.StateChange != nil:
		kind = "state"
	case ev.Data != nil:
		kind = "data"
		size = strconv.Itoa(ev.Data.Size)
	case ev.Anomaly != nil:
		kind = "anomaly"
	}
	return []string{
		ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ev.ConnectionID,
		ev.RemoteAddr,
		ev.Player,
		ev.Direction.String(),
		ev.Layer.String(),
		ev.Category.String(),
		kind,
		option,
		size,
	}
}
