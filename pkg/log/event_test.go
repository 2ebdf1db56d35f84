package log

import "testing"

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.dir.String()
		if got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerTelnet, "TELNET"},
		{LayerReporting, "REPORTING"},
		{LayerService, "SERVICE"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.layer.String()
		if got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryNegotiation, "NEGOTIATION"},
		{CategorySubnegotiation, "SUBNEGOTIATION"},
		{CategoryState, "STATE"},
		{CategoryAnomaly, "ANOMALY"},
		{CategoryData, "DATA"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestStateEntityString(t *testing.T) {
	tests := []struct {
		entity StateEntity
		want   string
	}{
		{StateEntityConnection, "CONNECTION"},
		{StateEntityMode, "MODE"},
		{StateEntityCapability, "CAPABILITY"},
		{StateEntityCompression, "COMPRESSION"},
		{StateEntity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.entity.String()
		if got != tt.want {
			t.Errorf("StateEntity(%d).String() = %q, want %q", tt.entity, got, tt.want)
		}
	}
}

func TestEventOptionCode(t *testing.T) {
	neg := Event{Negotiation: &NegotiationEvent{Verb: 253, Option: 31}}
	if opt, ok := neg.OptionCode(); !ok || opt != 31 {
		t.Errorf("negotiation OptionCode() = %d, %v; want 31, true", opt, ok)
	}

	sub := Event{Subnegotiation: &SubnegotiationEvent{Option: 69}}
	if opt, ok := sub.OptionCode(); !ok || opt != 69 {
		t.Errorf("sub-negotiation OptionCode() = %d, %v; want 69, true", opt, ok)
	}

	if _, ok := (Event{Data: &DataEvent{}}).OptionCode(); ok {
		t.Error("data event should have no option code")
	}
}

func TestClip(t *testing.T) {
	small := make([]byte, 10)
	got, truncated := Clip(small)
	if truncated || len(got) != 10 {
		t.Errorf("Clip(10 bytes) = %d bytes, truncated=%v", len(got), truncated)
	}

	big := make([]byte, MaxLogDataSize+1)
	got, truncated = Clip(big)
	if !truncated || len(got) != MaxLogDataSize {
		t.Errorf("Clip(%d bytes) = %d bytes, truncated=%v", len(big), len(got), truncated)
	}
}
