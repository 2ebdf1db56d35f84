package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events from a capture. Zero fields match everything.
type Filter struct {
	ConnectionID string
	Player       string

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// Option matches negotiation and sub-negotiation events for one telnet
	// option; other events never match.
	Option *uint8

	// TimeStart is inclusive and TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Match reports whether ev passes every set criterion.
func (f Filter) Match(ev Event) bool {
	switch {
	case f.ConnectionID != "" && ev.ConnectionID != f.ConnectionID,
		f.Player != "" && ev.Player != f.Player,
		f.Direction != nil && ev.Direction != *f.Direction,
		f.Layer != nil && ev.Layer != *f.Layer,
		f.Category != nil && ev.Category != *f.Category,
		f.TimeStart != nil && ev.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !ev.Timestamp.Before(*f.TimeEnd):
		return false
	}
	if f.Option != nil {
		opt, ok := ev.OptionCode()
		return ok && opt == *f.Option
	}
	return true
}

// Reader streams events from a capture file written by FileLogger.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens the capture at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens the capture at path; Next skips events that do
// not match filter. A zero-length file reads as an empty capture.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := NewDecoder(f)
	if err := readHeader(dec); err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Reader{file: f, dec: dec, filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
// A capture cut short mid-event yields a decode error.
func (r *Reader) Next() (Event, error) {
	for {
		var ev Event
		err := r.dec.Decode(&ev)
		switch {
		case err == io.EOF:
			return Event{}, io.EOF
		case err != nil:
			return Event{}, fmt.Errorf("decode event: %w", err)
		case r.filter.Match(ev):
			return ev, nil
		}
	}
}

// Each calls fn for every remaining matching event and stops at the first
// error fn returns.
func (r *Reader) Each(fn func(Event) error) error {
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Scan opens the capture at path and calls fn for every event matching
// filter.
func Scan(path string, filter Filter, fn func(Event) error) error {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Each(fn)
}
