package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServerTXT creates TXT records for a server.
func EncodeServerTXT(info *ServerInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyName] = info.Name
	txt[TXTKeyPlayers] = strconv.Itoa(info.Players)

	if info.Codebase != "" {
		txt[TXTKeyCodebase] = info.Codebase
	}
	if info.TLSPort != 0 {
		txt[TXTKeyTLSPort] = strconv.FormatUint(uint64(info.TLSPort), 10)
	}
	if len(info.Charsets) > 0 {
		txt[TXTKeyCharsets] = strings.Join(info.Charsets, ",")
	}
	if len(info.Reporting) > 0 {
		txt[TXTKeyReporting] = strings.Join(info.Reporting, ",")
	}

	return txt
}

// DecodeServerTXT parses TXT records of a server.
func DecodeServerTXT(txt TXTRecordMap) (*ServerInfo, error) {
	info := &ServerInfo{}

	var ok bool
	info.Name, ok = txt[TXTKeyName]
	if !ok || info.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyName)
	}

	if s, ok := txt[TXTKeyPlayers]; ok && s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: players %q", ErrInvalidTXTRecord, s)
		}
		info.Players = n
	}
	if s, ok := txt[TXTKeyTLSPort]; ok && s != "" {
		p, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: tls port %q", ErrInvalidTXTRecord, s)
		}
		info.TLSPort = uint16(p)
	}

	info.Codebase = txt[TXTKeyCodebase]
	info.Charsets = splitList(txt[TXTKeyCharsets])
	info.Reporting = splitList(txt[TXTKeyReporting])

	return info, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
