package discovery

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestServerTXTRoundtrip(t *testing.T) {
	info := &ServerInfo{
		Name:      "Realms",
		Codebase:  "RealmsCode",
		Port:      4000,
		TLSPort:   4001,
		Players:   12,
		Charsets:  []string{"UTF-8", "ISO-8859-1"},
		Reporting: []string{"MSDP", "ATCP"},
	}

	txt := EncodeServerTXT(info)
	decoded, err := DecodeServerTXT(txt)
	if err != nil {
		t.Fatalf("DecodeServerTXT failed: %v", err)
	}

	if decoded.Name != info.Name {
		t.Errorf("Name: got %q, want %q", decoded.Name, info.Name)
	}
	if decoded.Codebase != info.Codebase {
		t.Errorf("Codebase: got %q, want %q", decoded.Codebase, info.Codebase)
	}
	if decoded.TLSPort != info.TLSPort {
		t.Errorf("TLSPort: got %d, want %d", decoded.TLSPort, info.TLSPort)
	}
	if decoded.Players != info.Players {
		t.Errorf("Players: got %d, want %d", decoded.Players, info.Players)
	}
	if !reflect.DeepEqual(decoded.Charsets, info.Charsets) {
		t.Errorf("Charsets: got %v, want %v", decoded.Charsets, info.Charsets)
	}
	if !reflect.DeepEqual(decoded.Reporting, info.Reporting) {
		t.Errorf("Reporting: got %v, want %v", decoded.Reporting, info.Reporting)
	}
}

func TestEncodeServerTXTOmitsEmpty(t *testing.T) {
	txt := EncodeServerTXT(&ServerInfo{Name: "Realms"})

	for _, key := range []string{TXTKeyCodebase, TXTKeyTLSPort, TXTKeyCharsets, TXTKeyReporting} {
		if _, ok := txt[key]; ok {
			t.Errorf("unexpected key %s", key)
		}
	}
	if txt[TXTKeyPlayers] != "0" {
		t.Errorf("players: got %q, want 0", txt[TXTKeyPlayers])
	}
}

func TestDecodeServerTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"MissingName", TXTRecordMap{TXTKeyPlayers: "1"}, ErrMissingRequired},
		{"EmptyName", TXTRecordMap{TXTKeyName: ""}, ErrMissingRequired},
		{"BadPlayers", TXTRecordMap{TXTKeyName: "x", TXTKeyPlayers: "many"}, ErrInvalidTXTRecord},
		{"NegativePlayers", TXTRecordMap{TXTKeyName: "x", TXTKeyPlayers: "-1"}, ErrInvalidTXTRecord},
		{"BadTLSPort", TXTRecordMap{TXTKeyName: "x", TXTKeyTLSPort: "70000"}, ErrInvalidTXTRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeServerTXT(tt.txt)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTXTRecordsToStrings(t *testing.T) {
	got := TXTRecordsToStrings(TXTRecordMap{"PL": "3", "N": "Realms", "CB": "RealmsCode"})
	want := []string{"CB=RealmsCode", "N=Realms", "PL=3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"N=Realms", "flag", "CS=UTF-8", "", "X=a=b"})

	if txt["N"] != "Realms" {
		t.Errorf("N: got %q", txt["N"])
	}
	if v, ok := txt["flag"]; !ok || v != "" {
		t.Errorf("flag: got %q, %v", v, ok)
	}
	if txt["X"] != "a=b" {
		t.Errorf("X: got %q", txt["X"])
	}
	if len(txt) != 4 {
		t.Errorf("len: got %d, want 4", len(txt))
	}
}

func TestValidateInstanceName(t *testing.T) {
	if err := ValidateInstanceName("Realms"); err != nil {
		t.Errorf("valid name: %v", err)
	}
	if err := ValidateInstanceName(""); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("empty name: got %v", err)
	}
	if err := ValidateInstanceName(strings.Repeat("a", 64)); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("long name: got %v", err)
	}
}

func TestServerInfoInstanceName(t *testing.T) {
	info := &ServerInfo{Name: "Realms"}
	if got := info.InstanceName(); got != "Realms" {
		t.Errorf("default: got %q", got)
	}

	info.Instance = "Realms (test)"
	if got := info.InstanceName(); got != "Realms (test)" {
		t.Errorf("explicit: got %q", got)
	}

	info.Instance = strings.Repeat("r", 80)
	if got := info.InstanceName(); len(got) != MaxInstanceNameLen {
		t.Errorf("clipped length: got %d", len(got))
	}
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	got := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "fe80::1"})
	want := []string{"10.0.0.1", "fe80::1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merge: got %v, want %v", got, want)
	}
}

func TestMDNSAdvertiserIdle(t *testing.T) {
	adv, err := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	if err != nil {
		t.Fatalf("NewMDNSAdvertiser: %v", err)
	}

	if adv.Advertising() {
		t.Error("new advertiser should not be advertising")
	}
	if err := adv.Update(&ServerInfo{Name: "Realms"}); !errors.Is(err, ErrNotAdvertising) {
		t.Errorf("Update: got %v, want ErrNotAdvertising", err)
	}
	if err := adv.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestMDNSAdvertiserRejectsEmptyName(t *testing.T) {
	adv, _ := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	err := adv.Advertise(context.Background(), &ServerInfo{})
	if !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("got %v, want ErrInstanceNameTooLong", err)
	}
}

func TestNewMDNSAdvertiserNegativeTTL(t *testing.T) {
	if _, err := NewMDNSAdvertiser(AdvertiserConfig{TTL: -1}); err == nil {
		t.Error("expected error")
	}
}

func TestMDNSBrowserStopped(t *testing.T) {
	b, err := NewMDNSBrowser(BrowserConfig{})
	if err != nil {
		t.Fatalf("NewMDNSBrowser: %v", err)
	}
	if b.config.BrowseTimeout != BrowseTimeout {
		t.Errorf("timeout default: got %v", b.config.BrowseTimeout)
	}

	b.Stop()
	if _, err := b.Browse(context.Background()); err == nil {
		t.Error("Browse after Stop should fail")
	}
}
