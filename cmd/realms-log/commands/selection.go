package commands

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Selection holds the event selection flags every subcommand accepts, as
// typed on the command line.
type Selection struct {
	Conn      string
	Player    string
	Option    string
	Since     string
	Until     string
	Layer     string
	Direction string
	Category  string
}

// Register binds the selection flags to fs.
func (s *Selection) Register(fs *flag.FlagSet) {
	fs.StringVar(&s.Conn, "conn-id", "", "Only events of this connection ID")
	fs.StringVar(&s.Player, "player", "", "Only events of this player")
	fs.StringVar(&s.Option, "option", "", "Only negotiation of this telnet option (name or number)")
	fs.StringVar(&s.Since, "time-start", "", "Only events at or after this time (RFC3339)")
	fs.StringVar(&s.Until, "time-end", "", "Only events before this time (RFC3339)")
	fs.StringVar(&s.Layer, "layer", "", "Only this layer (transport, telnet, reporting, service)")
	fs.StringVar(&s.Direction, "direction", "", "Only this direction (in, out)")
	fs.StringVar(&s.Category, "category", "", "Only this category (negotiation, subnegotiation, state, anomaly, data)")
}

// Filter converts the selection to a log.Filter.
func (s Selection) Filter() (log.Filter, error) {
	f := log.Filter{ConnectionID: s.Conn, Player: s.Player}

	if s.Since != "" {
		t, err := time.Parse(time.RFC3339, s.Since)
		if err != nil {
			return f, fmt.Errorf("time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if s.Until != "" {
		t, err := time.Parse(time.RFC3339, s.Until)
		if err != nil {
			return f, fmt.Errorf("time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	if s.Layer != "" {
		l, err := ParseLayerFlag(s.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if s.Direction != "" {
		d, err := ParseDirectionFlag(s.Direction)
		if err != nil {
			return f, err
		}
		f.Direction = &d
	}
	if s.Category != "" {
		c, err := ParseCategoryFlag(s.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	if s.Option != "" {
		o, err := ParseOptionFlag(s.Option)
		if err != nil {
			return f, err
		}
		f.Option = &o
	}
	return f, nil
}

// scan runs fn over the selected events of the capture at path.
func (s Selection) scan(path string, fn func(log.Event) error) error {
	f, err := s.Filter()
	if err != nil {
		return err
	}
	return log.Scan(path, f, fn)
}

var layerNames = map[string]log.Layer{
	"transport": log.LayerTransport,
	"telnet":    log.LayerTelnet,
	"reporting": log.LayerReporting,
	"service":   log.LayerService,
}

var categoryNames = map[string]log.Category{
	"negotiation":    log.CategoryNegotiation,
	"subnegotiation": log.CategorySubnegotiation,
	"sb":             log.CategorySubnegotiation,
	"state":          log.CategoryState,
	"anomaly":        log.CategoryAnomaly,
	"data":           log.CategoryData,
}

// ParseLayerFlag parses a layer name, ignoring case.
func ParseLayerFlag(s string) (log.Layer, error) {
	if l, ok := layerNames[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("invalid layer %q (transport, telnet, reporting or service)", s)
}

// ParseDirectionFlag parses "in" or "out", ignoring case.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	}
	return 0, fmt.Errorf("invalid direction %q (in or out)", s)
}

// ParseCategoryFlag parses a category name, ignoring case. "sb" is short
// for subnegotiation.
func ParseCategoryFlag(s string) (log.Category, error) {
	if c, ok := categoryNames[strings.ToLower(s)]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("invalid category %q (negotiation, subnegotiation, state, anomaly or data)", s)
}

// ParseOptionFlag parses a telnet option given by name, such as "msdp", or
// by number.
func ParseOptionFlag(s string) (uint8, error) {
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return uint8(n), nil
	}
	for i := 0; i < 256; i++ {
		if strings.EqualFold(telnet.OptionName(byte(i)), s) {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("invalid option %q", s)
}
