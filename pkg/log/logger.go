package log

// Logger receives protocol events from connections and the service.
//
// Log is called from the service tick, so implementations must return
// promptly and be safe for concurrent use when shared between services.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

// Enabled reports whether events sent to l go anywhere. Callers use it to
// skip building events nobody records.
func Enabled(l Logger) bool {
	switch v := l.(type) {
	case nil:
		return false
	case NoopLogger, *NoopLogger:
		return false
	case LoggerFunc:
		return v != nil
	case *MultiLogger:
		return v != nil && len(v.loggers) > 0
	}
	return true
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
