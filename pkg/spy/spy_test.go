package spy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchAndWatchers(t *testing.T) {
	tbl := New(DefaultBacklog)

	_, err := tbl.Watch("a", "t")
	require.NoError(t, err)
	_, err = tbl.Watch("b", "t")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tbl.Watchers("t"))
	target, ok := tbl.Watching("a")
	assert.True(t, ok)
	assert.Equal(t, "t", target)
	assert.Equal(t, 2, tbl.Len())
}

func TestWatchErrors(t *testing.T) {
	tbl := New(DefaultBacklog)

	_, err := tbl.Watch("a", "a")
	assert.ErrorIs(t, err, ErrSelf)
	_, err = tbl.Watch("", "a")
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = tbl.Unwatch("a")
	assert.ErrorIs(t, err, ErrNotWatching)
}

func TestWatchReplacesTarget(t *testing.T) {
	tbl := New(DefaultBacklog)
	tbl.Watch("a", "t1")
	tbl.Watch("a", "t2")

	assert.Nil(t, tbl.Watchers("t1"))
	assert.Equal(t, []string{"a"}, tbl.Watchers("t2"))
	assert.Equal(t, 1, tbl.Len())
}

func TestReplayKeepsTail(t *testing.T) {
	tbl := New(8)
	tbl.Record("t", []byte("hello "))
	tbl.Record("t", []byte("world"))

	replay, err := tbl.Watch("a", "t")
	require.NoError(t, err)
	assert.Equal(t, []byte("lo world"), replay)
}

func TestReplayDisabled(t *testing.T) {
	tbl := New(0)
	tbl.Record("t", []byte("hello"))

	replay, err := tbl.Watch("a", "t")
	require.NoError(t, err)
	assert.Empty(t, replay)
}

func TestUnwatch(t *testing.T) {
	tbl := New(DefaultBacklog)
	tbl.Watch("a", "t")

	target, err := tbl.Unwatch("a")
	require.NoError(t, err)
	assert.Equal(t, "t", target)
	assert.Nil(t, tbl.Watchers("t"))
	_, ok := tbl.Watching("a")
	assert.False(t, ok)
}

func TestSeverTarget(t *testing.T) {
	tbl := New(DefaultBacklog)
	tbl.Watch("a", "t")
	tbl.Watch("b", "t")
	tbl.Watch("t", "x")
	tbl.Record("t", []byte("data"))

	orphans := tbl.Sever("t")

	assert.Equal(t, []string{"a", "b"}, orphans)
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Watchers("x"))
	_, ok := tbl.Watching("a")
	assert.False(t, ok)

	// history is gone with the target
	replay, _ := tbl.Watch("c", "t")
	assert.Empty(t, replay)
}

func TestSeverObserver(t *testing.T) {
	tbl := New(DefaultBacklog)
	tbl.Watch("a", "t")
	tbl.Watch("b", "t")

	orphans := tbl.Sever("a")

	assert.Empty(t, orphans)
	assert.Equal(t, []string{"b"}, tbl.Watchers("t"))
}

func TestWatchersIsCopy(t *testing.T) {
	tbl := New(DefaultBacklog)
	tbl.Watch("a", "t")

	w := tbl.Watchers("t")
	w[0] = "changed"

	assert.Equal(t, []string{"a"}, tbl.Watchers("t"))
}
