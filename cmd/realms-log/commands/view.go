// Package commands implements the realms-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	var typeLabel string
	switch {
	case event.Negotiation != nil:
		typeLabel = fmt.Sprintf("%s %s", telnet.CommandName(event.Negotiation.Verb), optionLabel(event.Negotiation.Option, event.Negotiation.Name))
	case event.Subnegotiation != nil:
		typeLabel = "SB " + optionLabel(event.Subnegotiation.Option, event.Subnegotiation.Name)
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Data != nil:
		typeLabel = "Data"
	case event.Anomaly != nil:
		typeLabel = "Anomaly"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, event.Direction, event.Layer, typeLabel)
	if event.Player != "" {
		fmt.Fprintf(w, "  Player: %s\n", event.Player)
	}

	switch {
	case event.Subnegotiation != nil:
		formatSubnegotiationDetails(w, event.Subnegotiation)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Data != nil:
		formatDataDetails(w, event.Data)
	case event.Anomaly != nil:
		formatAnomalyDetails(w, event.Anomaly)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// optionLabel prefers the name captured with the event.
func optionLabel(opt uint8, name string) string {
	if name != "" {
		return name
	}
	return telnet.OptionName(opt)
}

func formatSubnegotiationDetails(w io.Writer, sb *log.SubnegotiationEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", sb.Size)

	if sb.Option == telnet.OptMSDP && !sb.Truncated {
		if vars, err := msdp.Decode(sb.Data); err == nil {
			for _, v := range vars {
				fmt.Fprintf(w, "  %s = %s\n", v.Name, joinValues(v.Values))
			}
			return
		}
	}
	if sb.Option == telnet.OptATCP && !sb.Truncated {
		for _, v := range msdp.DecodeLegacy(sb.Data) {
			fmt.Fprintf(w, "  %s = %s\n", v.Name, joinValues(v.Values))
		}
		return
	}
	writeBytes(w, sb.Data, sb.Truncated)
}

func joinValues(values []msdp.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

func formatDataDetails(w io.Writer, d *log.DataEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", d.Size)
	writeBytes(w, d.Data, d.Truncated)
}

// writeBytes prints printable data quoted and anything else as hex.
func writeBytes(w io.Writer, data []byte, truncated bool) {
	if len(data) == 0 {
		return
	}
	if printable(data) {
		fmt.Fprintf(w, "  Data: %s", strconv.Quote(string(data)))
	} else {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(data))
	}
	if truncated {
		fmt.Fprintf(w, " (truncated)")
	}
	fmt.Fprintln(w)
}

func printable(data []byte) bool {
	for _, b := range data {
		if b == '\r' || b == '\n' || b == '\t' {
			continue
		}
		if b < 0x20 || b >= 0x7f {
			return false
		}
	}
	return true
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatAnomalyDetails(w io.Writer, a *log.AnomalyEvent) {
	fmt.Fprintf(w, "  Layer: %s\n", a.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", a.Message)
	if a.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", a.Context)
	}
	if a.Fatal {
		fmt.Fprintln(w, "  Fatal: yes")
	}
}

// RunView prints the selected events of the capture at path.
func RunView(path string, sel Selection, w io.Writer) error {
	return sel.scan(path, func(ev log.Event) error {
		formatEvent(w, ev)
		return nil
	})
}
