package connection

// Mode is what the command layer is doing with a connection.
type Mode uint8

const (
	// ModeLogin is a connection that has not yet attached a session.
	ModeLogin Mode = iota
	// ModePlaying is a connection with an authenticated session.
	ModePlaying
	// ModeEditing is a connection whose lines go to an editor.
	ModeEditing
	// ModeClosing is a connection being torn down; it receives no lines.
	ModeClosing
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "LOGIN"
	case ModePlaying:
		return "PLAYING"
	case ModeEditing:
		return "EDITING"
	case ModeClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// AcceptsInput reports whether completed lines are delivered in this mode.
func (m Mode) AcceptsInput() bool {
	return m != ModeClosing
}
