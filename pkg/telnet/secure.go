package telnet

import "strings"

// SecureAttributes are the client-asserted values from a markup secure line
// (ESC [ 1 z ... \n), typically the reply to <VERSION> and <SUPPORT>.
type SecureAttributes struct {
	Client  string
	Version string
	Support string
	Raw     string
}

// ParseSecureAttributes scans a secure line for CLIENT=, VERSION= and
// SUPPORT=. Each value is a token of letters, digits and periods; a single
// opening quote is skipped.
func ParseSecureAttributes(line string) SecureAttributes {
	upper := strings.ToUpper(line)
	return SecureAttributes{
		Client:  secureToken(line, upper, "CLIENT="),
		Version: secureToken(line, upper, "VERSION="),
		Support: secureToken(line, upper, "SUPPORT="),
		Raw:     line,
	}
}

func secureToken(line, upper, key string) string {
	i := strings.Index(upper, key)
	if i < 0 {
		return ""
	}
	rest := line[i+len(key):]
	if strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
	}
	end := 0
	for end < len(rest) && isTokenByte(rest[end]) {
		end++
	}
	return rest[:end]
}

func isTokenByte(c byte) bool {
	return c == '.' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

// Empty reports whether no attribute was recognised.
func (s SecureAttributes) Empty() bool {
	return s.Client == "" && s.Version == "" && s.Support == ""
}
