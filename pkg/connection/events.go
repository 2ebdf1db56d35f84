package connection

import (
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// event fills the fields every protocol event carries.
func (c *Conn) event(dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	ev := log.Event{
		Timestamp:    c.cfg.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        layer,
		Category:     cat,
		RemoteAddr:   c.remote,
	}
	if c.session != nil {
		ev.Player = c.session.Name()
	}
	return ev
}

func (c *Conn) logNegotiation(dir log.Direction, verb, opt byte) {
	if !log.Enabled(c.cfg.ProtocolLogger) {
		return
	}
	ev := c.event(dir, log.LayerTelnet, log.CategoryNegotiation)
	ev.Negotiation = &log.NegotiationEvent{
		Verb:   verb,
		Option: opt,
		Name:   telnet.OptionName(opt),
	}
	c.cfg.ProtocolLogger.Log(ev)
}

func (c *Conn) logSubnegotiation(dir log.Direction, opt byte, payload []byte) {
	if !log.Enabled(c.cfg.ProtocolLogger) {
		return
	}
	clipped, truncated := log.Clip(payload)
	layer := log.LayerTelnet
	if opt == telnet.OptMSDP || opt == telnet.OptATCP {
		layer = log.LayerReporting
	}
	ev := c.event(dir, layer, log.CategorySubnegotiation)
	ev.Subnegotiation = &log.SubnegotiationEvent{
		Option:    opt,
		Name:      telnet.OptionName(opt),
		Size:      len(payload),
		Data:      append([]byte(nil), clipped...),
		Truncated: truncated,
	}
	c.cfg.ProtocolLogger.Log(ev)
}

func (c *Conn) logState(entity log.StateEntity, oldState, newState, reason string) {
	if !log.Enabled(c.cfg.ProtocolLogger) {
		return
	}
	ev := c.event(log.DirectionIn, log.LayerTelnet, log.CategoryState)
	if entity == log.StateEntityConnection || entity == log.StateEntityMode {
		ev.Layer = log.LayerService
	}
	ev.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	c.cfg.ProtocolLogger.Log(ev)
}

func (c *Conn) logAnomaly(layer log.Layer, message, context string) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug("protocol anomaly", "conn", c.id, "layer", layer, "message", message)
	}
	if !log.Enabled(c.cfg.ProtocolLogger) {
		return
	}
	ev := c.event(log.DirectionIn, layer, log.CategoryAnomaly)
	ev.Anomaly = &log.AnomalyEvent{
		Layer:   layer,
		Message: message,
		Context: context,
	}
	c.cfg.ProtocolLogger.Log(ev)
}
