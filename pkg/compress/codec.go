// Package compress implements the stream compression codec used by the
// MCCP telnet options.
//
// A Codec sits between the output pipeline and the socket. While inactive it
// passes bytes through; after Start every byte is deflated into a single
// zlib stream and sync-flushed so the client can decode it immediately.
package compress

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Version is the MCCP version of a compressed stream.
type Version uint8

const (
	// VersionNone means compression is not active.
	VersionNone Version = 0
	// V1 is MCCP v1 (option 85).
	V1 Version = 1
	// V2 is MCCP v2 (option 86).
	V2 Version = 2
)

// String returns the version name.
func (v Version) String() string {
	switch v {
	case VersionNone:
		return "NONE"
	case V1:
		return "MCCP1"
	case V2:
		return "MCCP2"
	default:
		return "UNKNOWN"
	}
}

// Option returns the telnet option byte that negotiates v.
func (v Version) Option() byte {
	if v == V1 {
		return telnet.OptCompress
	}
	return telnet.OptCompress2
}

// Marker returns the start sequence announcing a compressed stream.
// MCCP v1 used a malformed WILL SE terminator that clients still expect.
func Marker(v Version) []byte {
	switch v {
	case V1:
		return []byte{telnet.IAC, telnet.SB, telnet.OptCompress, telnet.WILL, telnet.SE}
	case V2:
		return []byte{telnet.IAC, telnet.SB, telnet.OptCompress2, telnet.IAC, telnet.SE}
	default:
		return nil
	}
}

// Errors returned by Codec.
var (
	ErrActive         = errors.New("compression already active")
	ErrUnknownVersion = errors.New("unknown compression version")
)

// Stats counts bytes on either side of the codec.
type Stats struct {
	// Plain is every byte handed to Write, compressed or not.
	Plain uint64
	// Wire is every byte the codec produced for the socket, markers included.
	Wire uint64
	// Streams is the number of compressed streams started.
	Streams uint64
}

// Ratio returns wire bytes per plain byte, 1 when nothing was written.
func (s Stats) Ratio() float64 {
	if s.Plain == 0 {
		return 1
	}
	return float64(s.Wire) / float64(s.Plain)
}

// Codec is a per-connection compressor. It is not safe for concurrent use.
type Codec struct {
	level   int
	version Version
	zw      *zlib.Writer
	buf     bytes.Buffer
	stats   Stats
}

// New creates an inactive codec compressing at level (zlib levels; 0 or
// out of range selects the default).
func New(level int) *Codec {
	if level < zlib.HuffmanOnly || level > zlib.BestCompression || level == zlib.NoCompression {
		level = zlib.DefaultCompression
	}
	return &Codec{level: level}
}

// Active reports whether a compressed stream is open.
func (c *Codec) Active() bool {
	return c.zw != nil
}

// Version returns the version of the open stream, VersionNone if inactive.
func (c *Codec) Version() Version {
	return c.version
}

// Stats returns the byte counters.
func (c *Codec) Stats() Stats {
	return c.stats
}

// Start opens a compressed stream. The returned start marker must reach the
// socket uncompressed, ahead of anything Write returns afterwards. On error
// the codec stays inactive and the caller continues uncompressed.
func (c *Codec) Start(v Version) ([]byte, error) {
	if c.Active() {
		return nil, ErrActive
	}
	marker := Marker(v)
	if marker == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, v)
	}
	c.buf.Reset()
	zw, err := zlib.NewWriterLevel(&c.buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("allocate compressor: %w", err)
	}
	c.zw = zw
	c.version = v
	c.stats.Streams++
	c.stats.Wire += uint64(len(marker))
	return marker, nil
}

// Write returns the wire form of p: p itself while inactive, otherwise the
// sync-flushed compressed bytes.
func (c *Codec) Write(p []byte) ([]byte, error) {
	c.stats.Plain += uint64(len(p))
	if !c.Active() {
		c.stats.Wire += uint64(len(p))
		return p, nil
	}
	if _, err := c.zw.Write(p); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := c.zw.Flush(); err != nil {
		return nil, fmt.Errorf("flush compressor: %w", err)
	}
	return c.take(), nil
}

// End finalizes the stream and returns its trailing bytes. Calling End on an
// inactive codec is a no-op.
func (c *Codec) End() ([]byte, error) {
	if !c.Active() {
		return nil, nil
	}
	err := c.zw.Close()
	out := c.take()
	c.zw = nil
	c.version = VersionNone
	c.buf = bytes.Buffer{}
	if err != nil {
		return out, fmt.Errorf("finalize compressor: %w", err)
	}
	return out, nil
}

func (c *Codec) take() []byte {
	if c.buf.Len() == 0 {
		return nil
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	c.buf.Reset()
	c.stats.Wire += uint64(len(out))
	return out
}
