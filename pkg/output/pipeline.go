// Package output implements the per-connection output pipeline: markup
// expansion into negotiated capabilities, compression routing and
// non-blocking delivery with partial-write continuation.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/compress"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// DefaultMaxBuffered bounds queued plus unwritten output per connection.
const DefaultMaxBuffered = 1 << 20

// ErrOverflow is returned by Flush once output was dropped because the peer
// stopped reading.
var ErrOverflow = errors.New("output buffer overflow")

// Socket is the write side of a connection. A write that cannot complete
// returns the bytes accepted so far with transport.ErrWouldBlock, or a
// short count with a nil error.
type Socket interface {
	Write(p []byte) (int, error)
}

// PromptFunc returns the prompt shown after a batch whose last line is
// visible.
type PromptFunc func() string

// CompressFailureFunc is called when a queued compression start fails. The
// pipeline continues uncompressed.
type CompressFailureFunc func(v compress.Version, err error)

// Config configures a Pipeline.
type Config struct {
	Socket Socket
	Codec  *compress.Codec

	// Caps is the live capability set of the connection; it is read at
	// flush time, so capability changes affect output not yet encoded.
	Caps *telnet.Capabilities

	MaxBuffered int

	Prompt            PromptFunc
	OnCompressFailure CompressFailureFunc
}

type segmentKind uint8

const (
	segText segmentKind = iota
	segRaw
	segCompressStart
	segCompressEnd
)

type segment struct {
	kind    segmentKind
	text    string
	raw     []byte
	version compress.Version
}

// Stats counts delivered output.
type Stats struct {
	// Written is the number of wire bytes the socket accepted.
	Written uint64
	// ShortWrites counts flushes that left a remainder.
	ShortWrites uint64
}

// Pipeline queues output for one connection. It is not safe for concurrent
// use.
type Pipeline struct {
	cfg Config

	pending  []segment
	queued   int
	overflow bool

	// visible tracks whether the latest non-blank line shows anything;
	// open is set while that line is still unterminated.
	visible bool
	open    bool

	// out holds encoded wire bytes not yet accepted by the socket.
	out []byte

	stats Stats
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.MaxBuffered <= 0 {
		cfg.MaxBuffered = DefaultMaxBuffered
	}
	if cfg.Codec == nil {
		cfg.Codec = compress.New(0)
	}
	if cfg.Caps == nil {
		caps := telnet.DefaultCapabilities()
		cfg.Caps = &caps
	}
	return &Pipeline{cfg: cfg}
}

// SetPrompt replaces the prompt provider; nil disables the prompt.
func (p *Pipeline) SetPrompt(fn PromptFunc) {
	p.cfg.Prompt = fn
}

// Enqueue appends markup text.
func (p *Pipeline) Enqueue(text string) {
	if text == "" || !p.reserve(len(text)) {
		return
	}
	p.note(text)
	p.pending = append(p.pending, segment{kind: segText, text: text})
}

// note updates the prompt decision. Fragments of one line are judged
// together; blank lines leave the decision unchanged.
func (p *Pipeline) note(text string) {
	for {
		line, rest, newline := cutLine(text)
		if strings.TrimSpace(line) != "" {
			p.visible = Visible(line) || (p.open && p.visible)
			p.open = true
		}
		if !newline {
			return
		}
		p.open = false
		if rest == "" {
			return
		}
		text = rest
	}
}

// EnqueueRaw appends protocol bytes that bypass markup expansion and IAC
// escaping. They are still compressed while compression is active.
func (p *Pipeline) EnqueueRaw(b []byte) {
	if len(b) == 0 || !p.reserve(len(b)) {
		return
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	p.pending = append(p.pending, segment{kind: segRaw, raw: raw})
}

// StartCompression queues the start of a compressed stream behind all output
// queued so far.
func (p *Pipeline) StartCompression(v compress.Version) {
	p.pending = append(p.pending, segment{kind: segCompressStart, version: v})
}

// EndCompression queues the end of the compressed stream.
func (p *Pipeline) EndCompression() {
	p.pending = append(p.pending, segment{kind: segCompressEnd})
}

func (p *Pipeline) reserve(n int) bool {
	if p.overflow {
		return false
	}
	if p.queued+len(p.out)+n > p.cfg.MaxBuffered {
		p.overflow = true
		p.pending = nil
		p.queued = 0
		return false
	}
	p.queued += n
	return true
}

// Pending reports whether any output is queued or unwritten.
func (p *Pipeline) Pending() bool {
	return len(p.pending) > 0 || len(p.out) > 0
}

// Remainder returns the number of encoded bytes a short write left behind.
func (p *Pipeline) Remainder() int {
	return len(p.out)
}

// Stats returns delivery counters.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Flush delivers as much output as the socket accepts. The remainder of an
// earlier short write goes first; queued output is encoded only once that
// remainder is gone. It returns the number of bytes written and a non-nil
// error only for a transport failure or overflow.
func (p *Pipeline) Flush() (int, error) {
	if p.overflow {
		return 0, ErrOverflow
	}
	written, err := p.drain()
	if err != nil || len(p.out) > 0 {
		return written, err
	}
	if len(p.pending) == 0 {
		return written, nil
	}
	if err := p.encode(); err != nil {
		return written, err
	}
	n, err := p.drain()
	return written + n, err
}

// Discard drops all queued and unwritten output. An open compressed stream
// is ended without sending its trailer.
func (p *Pipeline) Discard() {
	p.pending = nil
	p.queued = 0
	p.out = nil
	p.visible = false
	p.open = false
	if p.cfg.Codec.Active() {
		_, _ = p.cfg.Codec.End()
	}
	p.cfg.Caps.Compressing = false
	p.cfg.Caps.CompressVersion = 0
}

func (p *Pipeline) drain() (int, error) {
	if len(p.out) == 0 || p.cfg.Socket == nil {
		return 0, nil
	}
	n, err := p.cfg.Socket.Write(p.out)
	if n < 0 {
		n = 0
	}
	p.stats.Written += uint64(n)
	p.out = p.out[n:]
	if len(p.out) == 0 {
		p.out = nil
	}
	if err != nil && !errors.Is(err, transport.ErrWouldBlock) {
		return n, fmt.Errorf("write: %w", err)
	}
	if len(p.out) > 0 {
		p.stats.ShortWrites++
	}
	return n, nil
}

// encode turns the queued segments into wire bytes in p.out.
func (p *Pipeline) encode() error {
	caps := *p.cfg.Caps
	if p.visible && p.cfg.Prompt != nil {
		p.appendPrompt(caps)
	}
	p.visible = false
	p.open = false

	codec := p.cfg.Codec
	// Segments appended by a failure hook are encoded in this pass.
	for i := 0; i < len(p.pending); i++ {
		seg := p.pending[i]
		switch seg.kind {
		case segText:
			if err := p.write(Render(seg.text, caps)); err != nil {
				return err
			}
		case segRaw:
			if err := p.write(seg.raw); err != nil {
				return err
			}
		case segCompressStart:
			marker, err := codec.Start(seg.version)
			if err != nil {
				if p.cfg.OnCompressFailure != nil {
					p.cfg.OnCompressFailure(seg.version, err)
				}
				continue
			}
			p.cfg.Caps.Compressing = true
			p.cfg.Caps.CompressVersion = uint8(seg.version)
			p.out = append(p.out, marker...)
		case segCompressEnd:
			tail, err := codec.End()
			p.out = append(p.out, tail...)
			p.cfg.Caps.Compressing = false
			p.cfg.Caps.CompressVersion = 0
			if err != nil {
				return err
			}
		}
	}
	p.pending = p.pending[:0]
	p.queued = 0
	return nil
}

func (p *Pipeline) appendPrompt(caps telnet.Capabilities) {
	var seg segment
	seg.kind = segText
	seg.text = p.cfg.Prompt()
	end := telnet.GA
	if caps.EOR {
		end = telnet.EOR
	}
	p.pending = append(p.pending, seg, segment{kind: segRaw, raw: telnet.Command(end)})
}

func (p *Pipeline) write(b []byte) error {
	wire, err := p.cfg.Codec.Write(b)
	if err != nil {
		return err
	}
	p.out = append(p.out, wire...)
	return nil
}
