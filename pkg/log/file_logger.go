package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to an .rlog capture file.
type FileLogger struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *cbor.Encoder
	written int
	dropped int
	closed  bool
}

// NewFileLogger opens path for appending, creating it with mode 0644 when
// missing. A new or empty file gets the FileMagic header; an existing one
// must already start with it.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	enc := NewEncoder(f)
	if info.Size() == 0 {
		if err := writeHeader(enc); err != nil {
			f.Close()
			return nil, fmt.Errorf("write capture header: %w", err)
		}
	} else if err := readHeader(NewDecoder(f)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &FileLogger{path: path, file: f, encoder: enc}, nil
}

// Path returns the capture file path.
func (l *FileLogger) Path() string { return l.path }

// Log appends the event. Encoding failures are counted, not returned.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.dropped++
		return
	}
	l.written++
}

// Counts returns the number of events written and dropped since opening.
func (l *FileLogger) Counts() (written, dropped int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.dropped
}

// Close closes the file. Later calls to Log are ignored and later calls to
// Close return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
