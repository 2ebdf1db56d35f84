package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
)

func TestCheckName(t *testing.T) {
	l := NewLobby()
	l.players["c1"] = &player{name: "Gandalf"}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  frodo ", want: "Frodo"},
		{in: "SAMWISE", want: "Samwise"},
		{in: "al", wantErr: true},
		{in: "thisnameiswaytoolong", wantErr: true},
		{in: "bilbo2", wantErr: true},
		{in: "gandalf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := l.checkName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLobbyEntriesBuild(t *testing.T) {
	cat, err := msdp.NewBuilder().Add(lobbyEntries()...).Build()
	require.NoError(t, err)

	e, ok := cat.Lookup("NOTES")
	require.True(t, ok)
	assert.True(t, e.RequiresSession)
	assert.Equal(t, 10, e.Interval)
}
