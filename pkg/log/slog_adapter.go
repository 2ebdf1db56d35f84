package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter mirrors protocol events into an operational slog.Logger, for
// watching negotiation live with -debug-protocol.
//
// Events are logged at Debug, except fatal anomalies which are logged at
// Warn so they surface at the default level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

var categoryMessages = map[Category]string{
	CategoryData:           "socket data",
	CategoryNegotiation:    "telnet negotiation",
	CategorySubnegotiation: "telnet subnegotiation",
	CategoryState:          "state change",
	CategoryAnomaly:        "protocol anomaly",
}

// verbName spells the four negotiation verbs; the telnet package cannot be
// imported from here.
func verbName(v uint8) string {
	switch v {
	case 251:
		return "WILL"
	case 252:
		return "WONT"
	case 253:
		return "DO"
	case 254:
		return "DONT"
	}
	return fmt.Sprintf("CMD%d", v)
}

// Log writes one record for ev.
func (a *SlogAdapter) Log(ev Event) {
	level := slog.LevelDebug
	msg, ok := categoryMessages[ev.Category]
	if !ok {
		msg = "protocol event"
	}

	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs,
		slog.String("conn_id", ev.ConnectionID),
		slog.String("direction", ev.Direction.String()),
		slog.String("layer", ev.Layer.String()),
	)
	if ev.Player != "" {
		attrs = append(attrs, slog.String("player", ev.Player))
	}

	if n := ev.Negotiation; n != nil {
		attrs = append(attrs, slog.String("verb", verbName(n.Verb)), slog.String("option", n.Name))
	}
	if sb := ev.Subnegotiation; sb != nil {
		attrs = append(attrs, slog.String("option", sb.Name), slog.Int("size", sb.Size))
		if sb.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	}
	if d := ev.Data; d != nil {
		attrs = append(attrs, slog.Int("size", d.Size))
		if d.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	}
	if sc := ev.StateChange; sc != nil {
		attrs = append(attrs,
			slog.String("entity", sc.Entity.String()),
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState),
		)
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
	}
	if an := ev.Anomaly; an != nil {
		attrs = append(attrs,
			slog.String("anomaly_layer", an.Layer.String()),
			slog.String("anomaly", an.Message),
		)
		if an.Context != "" {
			attrs = append(attrs, slog.String("context", an.Context))
		}
		if an.Fatal {
			attrs = append(attrs, slog.Bool("fatal", true))
			level = slog.LevelWarn
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
