package log

import "time"

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates data flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Player is the session name once the command layer has attached one.
	Player string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Negotiation    *NegotiationEvent    `cbor:"10,keyasint,omitempty"` // WILL/WONT/DO/DONT
	Subnegotiation *SubnegotiationEvent `cbor:"11,keyasint,omitempty"` // SB ... SE payloads
	StateChange    *StateChangeEvent    `cbor:"12,keyasint,omitempty"` // Connection/mode/capability state
	Data           *DataEvent           `cbor:"13,keyasint,omitempty"` // Raw bytes or lines
	Anomaly        *AnomalyEvent        `cbor:"14,keyasint,omitempty"` // Recovered or fatal protocol problems
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data from the client.
	DirectionIn Direction = 0
	// DirectionOut indicates data to the client.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the socket layer (raw bytes).
	LayerTransport Layer = 0
	// LayerTelnet is the negotiation layer.
	LayerTelnet Layer = 1
	// LayerReporting is the structured variable reporting layer.
	LayerReporting Layer = 2
	// LayerService is the enclosing service.
	LayerService Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerTelnet:
		return "TELNET"
	case LayerReporting:
		return "REPORTING"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryNegotiation indicates an option negotiation.
	CategoryNegotiation Category = 0
	// CategorySubnegotiation indicates a sub-negotiation payload.
	CategorySubnegotiation Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryAnomaly indicates a protocol anomaly or transport failure.
	CategoryAnomaly Category = 3
	// CategoryData indicates plain data (lines or raw bytes).
	CategoryData Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNegotiation:
		return "NEGOTIATION"
	case CategorySubnegotiation:
		return "SUBNEGOTIATION"
	case CategoryState:
		return "STATE"
	case CategoryAnomaly:
		return "ANOMALY"
	case CategoryData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// NegotiationEvent captures one WILL/WONT/DO/DONT exchange.
type NegotiationEvent struct {
	// Verb is the command byte (251-254).
	Verb uint8 `cbor:"1,keyasint"`

	// Option is the option byte.
	Option uint8 `cbor:"2,keyasint"`

	// Name is the option mnemonic at capture time.
	Name string `cbor:"3,keyasint,omitempty"`
}

// SubnegotiationEvent captures a sub-negotiation payload.
type SubnegotiationEvent struct {
	// Option is the option byte.
	Option uint8 `cbor:"1,keyasint"`

	// Name is the option mnemonic at capture time.
	Name string `cbor:"2,keyasint,omitempty"`

	// Size is the unescaped payload size.
	Size int `cbor:"3,keyasint"`

	// Data is the payload (may be truncated for large payloads).
	Data []byte `cbor:"4,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"5,keyasint,omitempty"`
}

// DataEvent captures plain bytes crossing a layer.
type DataEvent struct {
	// Size is the data size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large writes).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection lifecycle and capability changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection lifecycle change.
	StateEntityConnection StateEntity = 0
	// StateEntityMode indicates a connection mode change (login, playing, ...).
	StateEntityMode StateEntity = 1
	// StateEntityCapability indicates a negotiated capability change.
	StateEntityCapability StateEntity = 2
	// StateEntityCompression indicates a compressed stream starting or ending.
	StateEntityCompression StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityMode:
		return "MODE"
	case StateEntityCapability:
		return "CAPABILITY"
	case StateEntityCompression:
		return "COMPRESSION"
	default:
		return "UNKNOWN"
	}
}

// AnomalyEvent captures a protocol anomaly or transport failure.
type AnomalyEvent struct {
	// Layer where the anomaly occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message describes the anomaly.
	Message string `cbor:"2,keyasint"`

	// Context describes what was being processed.
	Context string `cbor:"3,keyasint,omitempty"`

	// Fatal is set when the anomaly tore the connection down.
	Fatal bool `cbor:"4,keyasint,omitempty"`
}

// MaxLogDataSize is the maximum payload size included in logged events.
const MaxLogDataSize = 4096

// Clip returns data limited to MaxLogDataSize and whether it was cut.
func Clip(data []byte) ([]byte, bool) {
	if len(data) <= MaxLogDataSize {
		return data, false
	}
	return data[:MaxLogDataSize], true
}

// OptionCode returns the option byte of a negotiation or sub-negotiation
// event.
func (e Event) OptionCode() (uint8, bool) {
	switch {
	case e.Negotiation != nil:
		return e.Negotiation.Option, true
	case e.Subnegotiation != nil:
		return e.Subnegotiation.Option, true
	default:
		return 0, false
	}
}
