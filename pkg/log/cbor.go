package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// FileMagic opens every capture file. It is encoded as a CBOR text string,
// so a capture file is a plain CBOR sequence: the magic, then one map per
// event.
const FileMagic = "realms-rlog/1"

// ErrNotCapture is returned when a file does not start with FileMagic.
var ErrNotCapture = errors.New("not a protocol capture file")

var (
	logEncMode cbor.EncMode
	logDecMode cbor.DecMode
)

func init() {
	var err error

	// Timestamps keep nanosecond precision; map keys are sorted so equal
	// events encode to equal bytes.
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	logEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: CBOR encoder mode: %v", err))
	}

	// Captures cut short by a crash end in a partial item; the reader
	// reports that as an error on the last Next.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	logDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes one CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for log events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for log events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}

// writeHeader writes FileMagic to enc.
func writeHeader(enc *cbor.Encoder) error {
	return enc.Encode(FileMagic)
}

// readHeader consumes FileMagic from dec. It returns io.EOF for an empty
// stream.
func readHeader(dec *cbor.Decoder) error {
	var magic string
	if err := dec.Decode(&magic); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w: %v", ErrNotCapture, err)
	}
	if magic != FileMagic {
		return fmt.Errorf("%w: header %q", ErrNotCapture, magic)
	}
	return nil
}
