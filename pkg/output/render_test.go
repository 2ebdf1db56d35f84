package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

func TestRender(t *testing.T) {
	ansi := telnet.Capabilities{Color: telnet.ColorANSI, UTF8: true}
	xterm := ansi
	xterm.Xterm256 = true
	off := telnet.Capabilities{Color: telnet.ColorOff, UTF8: true}
	dumb := ansi
	dumb.Dumb = true
	markup := off
	markup.MXP = true
	sound := off
	sound.Sound = true
	latin := off
	latin.UTF8 = false

	tests := []struct {
		name string
		caps telnet.Capabilities
		in   string
		want string
	}{
		{"basic colour", ansi, "^rred^x", "\x1b[0;31mred\x1b[0m"},
		{"bold colour", ansi, "^Gx", "\x1b[1;32mx"},
		{"colour off", off, "^rred^x", "red"},
		{"dumb terminal", dumb, "^Bblue^x", "blue"},
		{"literal caret", ansi, "a^^b", "a^b"},
		{"trailing caret", ansi, "50^", "50^"},
		{"unknown marker", ansi, "^z", "^z"},
		{"xterm cube", xterm, "^#500", "\x1b[38;5;196m"},
		{"cube fallback red", ansi, "^#500", "\x1b[1;31m"},
		{"cube fallback black", ansi, "^#000", "\x1b[0;30m"},
		{"cube fallback white", ansi, "^#555", "\x1b[1;37m"},
		{"cube dropped when off", off, "^#123x", "x"},
		{"bad cube", ansi, "^#9ab", "^#9ab"},
		{"markup on", markup, "\x03send href='x'\x04go\x03/send\x04 a<b", "<send href='x'>go</send> a&lt;b"},
		{"markup off", off, "\x03send href='x'\x04go\x03/send\x04 a<b", "go a<b"},
		{"entity on", markup, "\x06amp; &", "&amp; &amp;"},
		{"entity off", off, "x\x06amp;y", "xy"},
		{"newlines", off, "a\nb\r\n", "a\r\nb\r\n"},
		{"sound dropped", off, "!!SOUND(rain.wav)\nHello\n", "Hello\r\n"},
		{"music dropped", off, "  !!MUSIC(theme.mid L=1)\n", ""},
		{"sound kept", sound, "!!SOUND(rain.wav)\nHello\n", "!!SOUND(rain.wav)\r\nHello\r\n"},
		{"latin1", latin, "café", "caf\xe9"},
		{"latin1 iac doubled", latin, "ÿ", "\xff\xff"},
		{"latin1 unmappable", latin, "日本", "??"},
		{"utf8 untouched", off, "ÿ", "\xc3\xbf"},
		{"raw iac doubled", off, "\xff", "\xff\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Render(tt.in, tt.caps)))
		})
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"^r日本^x", 4},
		{"  ^x\n", 0},
		{"\x1b[31m\x1b[0m", 0},
		{"\x03b\x04hi\x03/b\x04", 2},
		{"!!SOUND(x.wav)\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibleWidth(tt.in))
			assert.Equal(t, tt.want > 0, Visible(tt.in))
		})
	}
}
