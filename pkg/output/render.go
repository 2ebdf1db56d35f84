package output

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding/charmap"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Markup control bytes the command layer embeds in text.
const (
	TagOpen     byte = 0x03 // becomes '<' when markup is active
	TagClose    byte = 0x04 // becomes '>'
	EntityOpen  byte = 0x06 // becomes '&'
	ColorMarker byte = '^'
)

const (
	soundTrigger = "!!SOUND("
	musicTrigger = "!!MUSIC("
	ansiReset    = "\x1b[0m"
	maxEntity    = 16
)

// colorLetters maps a caret colour letter to its ANSI colour index.
var colorLetters = map[byte]int{
	'k': 0, 'r': 1, 'g': 2, 'y': 3, 'b': 4, 'm': 5, 'c': 6, 'w': 7,
}

// Render expands markup text into its wire form for caps: colour markers,
// markup tags, sound triggers, newlines, character set and IAC doubling.
func Render(text string, caps telnet.Capabilities) []byte {
	r := renderer{
		caps:  caps,
		color: caps.ColorEnabled(),
		out:   make([]byte, 0, len(text)+len(text)/4),
	}
	for len(text) > 0 {
		line, rest, newline := cutLine(text)
		text = rest
		if !caps.Sound && isSoundTrigger(line) {
			continue
		}
		r.line(line)
		if newline {
			r.out = append(r.out, '\r', '\n')
		}
	}
	return r.encode()
}

// Visible reports whether text shows anything once markup, colour and
// control sequences are removed.
func Visible(text string) bool {
	return VisibleWidth(text) > 0
}

// VisibleWidth returns the display width of text with all markup and
// control sequences removed and surrounding space trimmed.
func VisibleWidth(text string) int {
	plain := Render(text, telnet.Capabilities{Color: telnet.ColorOff, UTF8: true})
	return runewidth.StringWidth(strings.TrimSpace(ansi.Strip(string(plain))))
}

type renderer struct {
	caps     telnet.Capabilities
	color    bool
	out      []byte
	inTag    bool
	inEntity int // bytes consumed inside an entity, 0 when outside
}

func cutLine(text string) (line, rest string, newline bool) {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return text, "", false
	}
	return text[:i], text[i+1:], true
}

func isSoundTrigger(line string) bool {
	line = strings.TrimLeft(line, " ")
	return strings.HasPrefix(line, soundTrigger) || strings.HasPrefix(line, musicTrigger)
}

func (r *renderer) line(s string) {
	markup := r.caps.MXP
	for i := 0; i < len(s); i++ {
		b := s[i]

		if r.inTag {
			if b == TagClose {
				r.inTag = false
				if markup {
					r.out = append(r.out, '>')
				}
			} else if markup {
				r.out = append(r.out, b)
			}
			continue
		}
		if r.inEntity > 0 {
			r.inEntity++
			if b == ';' || b == ' ' || r.inEntity > maxEntity {
				r.inEntity = 0
			}
			if markup || b == ' ' {
				r.out = append(r.out, b)
			}
			continue
		}

		switch b {
		case TagOpen:
			r.inTag = true
			if markup {
				r.out = append(r.out, '<')
			}
		case TagClose:
		case EntityOpen:
			r.inEntity = 1
			if markup {
				r.out = append(r.out, '&')
			}
		case ColorMarker:
			i += r.caret(s[i+1:])
		case '\r':
		case '<':
			r.text(b, "&lt;")
		case '>':
			r.text(b, "&gt;")
		case '&':
			r.text(b, "&amp;")
		default:
			r.out = append(r.out, b)
		}
	}
}

// text writes a literal character that must be escaped while markup is on.
func (r *renderer) text(b byte, escaped string) {
	if r.caps.MXP {
		r.out = append(r.out, escaped...)
		return
	}
	r.out = append(r.out, b)
}

// caret expands the colour marker whose argument starts at rest and returns
// how many bytes of rest it consumed.
func (r *renderer) caret(rest string) int {
	if rest == "" {
		r.out = append(r.out, ColorMarker)
		return 0
	}
	c := rest[0]
	switch {
	case c == ColorMarker:
		r.out = append(r.out, ColorMarker)
		return 1
	case c == 'x' || c == 'X':
		if r.color {
			r.out = append(r.out, ansiReset...)
		}
		return 1
	case c == '#':
		red, green, blue, ok := cubeDigits(rest[1:])
		if !ok {
			r.out = append(r.out, ColorMarker)
			return 0
		}
		if r.color {
			r.cube(red, green, blue)
		}
		return 4
	}
	idx, ok := colorLetters[c|0x20]
	if !ok {
		r.out = append(r.out, ColorMarker)
		return 0
	}
	if r.color {
		bold := c >= 'A' && c <= 'Z'
		r.basic(idx, bold)
	}
	return 1
}

func (r *renderer) basic(idx int, bold bool) {
	weight := 0
	if bold {
		weight = 1
	}
	r.out = fmt.Appendf(r.out, "\x1b[%d;3%dm", weight, idx)
}

func (r *renderer) cube(red, green, blue int) {
	n := 16 + 36*red + 6*green + blue
	if r.caps.Xterm256 {
		r.out = fmt.Appendf(r.out, "\x1b[38;5;%dm", n)
		return
	}
	idx := cubeFallback[n-16]
	r.basic(idx%8, idx >= 8)
}

func cubeDigits(s string) (red, green, blue int, ok bool) {
	if len(s) < 3 {
		return 0, 0, 0, false
	}
	var d [3]int
	for i := range d {
		if s[i] < '0' || s[i] > '5' {
			return 0, 0, 0, false
		}
		d[i] = int(s[i] - '0')
	}
	return d[0], d[1], d[2], true
}

// encode applies the character set and doubles IAC bytes.
func (r *renderer) encode() []byte {
	out := r.out
	if !r.caps.UTF8 {
		out = toLatin1(out)
	}
	if bytes.IndexByte(out, telnet.IAC) < 0 {
		return out
	}
	return telnet.EscapeIAC(out)
}

// toLatin1 transcodes UTF-8 to ISO-8859-1, replacing unmappable runes with
// '?'. Bytes that are not valid UTF-8 pass through unchanged.
func toLatin1(src []byte) []byte {
	if isASCII(src) {
		return src
	}
	out := make([]byte, 0, len(src))
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		switch {
		case r == utf8.RuneError && size <= 1:
			out = append(out, src[0])
		default:
			if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
		src = src[size:]
	}
	return out
}

func isASCII(p []byte) bool {
	for _, b := range p {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ansiPalette is the xterm rendition of the 16 basic colours.
var ansiPalette = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeFallback maps each of the 216 cube colours to its nearest basic colour.
var cubeFallback = buildCubeFallback()

func buildCubeFallback() [216]int {
	var palette [16]colorful.Color
	for i, c := range ansiPalette {
		palette[i] = rgb(c[0], c[1], c[2])
	}
	var table [216]int
	for n := range table {
		c := rgb(cubeLevels[n/36], cubeLevels[(n/6)%6], cubeLevels[n%6])
		best, bestDist := 0, -1.0
		for i, p := range palette {
			if d := c.DistanceLab(p); bestDist < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		table[n] = best
	}
	return table
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
