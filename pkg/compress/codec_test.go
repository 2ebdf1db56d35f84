package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

func inflate(t *testing.T, stream []byte) []byte {
	t.Helper()
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func TestCodecPassThroughWhenInactive(t *testing.T) {
	c := New(0)

	out, err := c.Write([]byte("hello"))

	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
	assert.False(t, c.Active())
	assert.Equal(t, Stats{Plain: 5, Wire: 5}, c.Stats())
}

func TestCodecStartMarkers(t *testing.T) {
	tests := []struct {
		version Version
		want    []byte
	}{
		{V2, []byte{telnet.IAC, telnet.SB, telnet.OptCompress2, telnet.IAC, telnet.SE}},
		{V1, []byte{telnet.IAC, telnet.SB, telnet.OptCompress, telnet.WILL, telnet.SE}},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			c := New(0)
			marker, err := c.Start(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, marker)
			assert.True(t, c.Active())
			assert.Equal(t, tt.version, c.Version())
		})
	}
}

func TestCodecStartErrors(t *testing.T) {
	c := New(0)
	_, err := c.Start(Version(7))
	assert.ErrorIs(t, err, ErrUnknownVersion)
	assert.False(t, c.Active())

	_, err = c.Start(V2)
	require.NoError(t, err)
	_, err = c.Start(V1)
	assert.ErrorIs(t, err, ErrActive)
	assert.Equal(t, V2, c.Version())
}

func TestCodecRoundTrip(t *testing.T) {
	c := New(6)
	_, err := c.Start(V2)
	require.NoError(t, err)

	var stream []byte
	for _, chunk := range []string{"You see ", "a dusty road.\r\n", "> "} {
		out, err := c.Write([]byte(chunk))
		require.NoError(t, err)
		require.NotEmpty(t, out, "sync flush must emit bytes per write")
		stream = append(stream, out...)
	}
	tail, err := c.End()
	require.NoError(t, err)
	stream = append(stream, tail...)

	assert.Equal(t, "You see a dusty road.\r\n> ", string(inflate(t, stream)))
}

func TestCodecEndIdempotent(t *testing.T) {
	c := New(0)
	_, err := c.Start(V2)
	require.NoError(t, err)
	_, err = c.Write([]byte("bye"))
	require.NoError(t, err)

	first, err := c.End()
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	statsAfterFirst := c.Stats()

	second, err := c.End()
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.False(t, c.Active())
	assert.Equal(t, VersionNone, c.Version())
	assert.Equal(t, statsAfterFirst, c.Stats())
}

func TestCodecEndWhenNeverStarted(t *testing.T) {
	c := New(0)
	out, err := c.End()
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestCodecRestartIsFreshStream(t *testing.T) {
	c := New(0)

	var streams [][]byte
	for _, text := range []string{"first", "second"} {
		_, err := c.Start(V2)
		require.NoError(t, err)
		out, err := c.Write([]byte(text))
		require.NoError(t, err)
		tail, err := c.End()
		require.NoError(t, err)
		streams = append(streams, append(out, tail...))
	}

	assert.Equal(t, "first", string(inflate(t, streams[0])))
	assert.Equal(t, "second", string(inflate(t, streams[1])))
	assert.Equal(t, uint64(2), c.Stats().Streams)
}

func TestCodecCountsPlainBytesInBothModes(t *testing.T) {
	c := New(0)
	_, err := c.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = c.Start(V2)
	require.NoError(t, err)
	_, err = c.Write(bytes.Repeat([]byte("x"), 1000))
	require.NoError(t, err)
	_, err = c.End()
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, uint64(1003), stats.Plain)
	assert.Less(t, stats.Wire, stats.Plain)
	assert.Less(t, stats.Ratio(), 1.0)
}

func TestStatsRatioEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Stats{}.Ratio())
}
