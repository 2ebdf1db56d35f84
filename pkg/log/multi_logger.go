package log

import (
	"errors"
	"io"
)

// MultiLogger fans events out to several sinks, typically a capture file
// and the debug slog adapter.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger returns a MultiLogger over the enabled loggers. Nested
// MultiLoggers are flattened.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		m.add(l)
	}
	return m
}

func (m *MultiLogger) add(l Logger) {
	if inner, ok := l.(*MultiLogger); ok && inner != nil {
		for _, il := range inner.loggers {
			m.add(il)
		}
		return
	}
	if Enabled(l) {
		m.loggers = append(m.loggers, l)
	}
}

// Combine returns the smallest Logger equivalent to fanning out to all of
// loggers: NoopLogger when none is enabled, the logger itself when only one
// is, and a MultiLogger otherwise.
func Combine(loggers ...Logger) Logger {
	m := NewMultiLogger(loggers...)
	switch len(m.loggers) {
	case 0:
		return NoopLogger{}
	case 1:
		return m.loggers[0]
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiLogger) Len() int { return len(m.loggers) }

// Log sends the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Close closes every sink that implements io.Closer and joins their errors.
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if c, ok := l.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

var (
	_ Logger    = (*MultiLogger)(nil)
	_ io.Closer = (*MultiLogger)(nil)
)
