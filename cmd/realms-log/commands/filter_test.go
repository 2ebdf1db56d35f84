package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	var events []log.Event
	if err := log.Scan(path, log.Filter{}, func(ev log.Event) error {
		events = append(events, ev)
		return nil
	}); err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return events
}

func TestFilterByConnectionID(t *testing.T) {
	events := []log.Event{
		{Timestamp: testTime, ConnectionID: "conn-1", Category: log.CategoryData},
		{Timestamp: testTime, ConnectionID: "conn-2", Category: log.CategoryData},
		{Timestamp: testTime, ConnectionID: "conn-1", Category: log.CategoryData},
	}
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.rlog")

	n, err := RunFilter(path, Selection{Conn: "conn-1"}, outPath)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events written, got %d", n)
	}

	for _, e := range readAll(t, outPath) {
		if e.ConnectionID != "conn-1" {
			t.Errorf("expected conn-1, got %s", e.ConnectionID)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, ConnectionID: "early"},
		{Timestamp: base.Add(time.Hour), ConnectionID: "middle"},
		{Timestamp: base.Add(2 * time.Hour), ConnectionID: "late"},
	}
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.rlog")

	_, err := RunFilter(path, Selection{
		Since: base.Add(30 * time.Minute).Format(time.RFC3339),
		Until: base.Add(90 * time.Minute).Format(time.RFC3339),
	}, outPath)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, outPath)
	if len(got) != 1 || got[0].ConnectionID != "middle" {
		t.Errorf("expected only the middle event, got %v", got)
	}
}

func TestFilterByOptionAndPlayer(t *testing.T) {
	events := []log.Event{
		{Timestamp: testTime, Player: "Frodo", Negotiation: &log.NegotiationEvent{Verb: telnet.DO, Option: telnet.OptMSDP}},
		{Timestamp: testTime, Player: "Frodo", Negotiation: &log.NegotiationEvent{Verb: telnet.DO, Option: telnet.OptNAWS}},
		{Timestamp: testTime, Player: "Sam", Subnegotiation: &log.SubnegotiationEvent{Option: telnet.OptMSDP}},
	}
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.rlog")

	n, err := RunFilter(path, Selection{Player: "Frodo", Option: "MSDP"}, outPath)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}

func TestFilterInvalidSelection(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.rlog")

	tests := []struct {
		name string
		sel  Selection
	}{
		{"time-start", Selection{Since: "yesterday"}},
		{"time-end", Selection{Until: "tomorrow"}},
		{"layer", Selection{Layer: "wire"}},
		{"direction", Selection{Direction: "sideways"}},
		{"category", Selection{Category: "message"}},
		{"option", Selection{Option: "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunFilter(path, tt.sel, outPath); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("output created for an invalid selection: %v", err)
	}
}

func TestFilterRefusesExistingOutput(t *testing.T) {
	path := createTestLogFile(t, []log.Event{{Timestamp: testTime, ConnectionID: "c"}})
	outPath := createTestLogFile(t, []log.Event{{Timestamp: testTime, ConnectionID: "old"}})

	if _, err := RunFilter(path, Selection{}, outPath); err == nil {
		t.Fatal("expected error for existing output")
	}
	if got := readAll(t, outPath); len(got) != 1 || got[0].ConnectionID != "old" {
		t.Errorf("existing output modified: %v", got)
	}
}
