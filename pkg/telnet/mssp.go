package telnet

// StatusVar is one MSSP variable. A variable may carry several values.
type StatusVar struct {
	Name   string
	Values []string
}

// EncodeStatus builds the flat VAR/VAL payload of an MSSP sub-negotiation.
func EncodeStatus(vars []StatusVar) []byte {
	var out []byte
	for _, v := range vars {
		if v.Name == "" {
			continue
		}
		out = append(out, MSSPVar)
		out = append(out, v.Name...)
		values := v.Values
		if len(values) == 0 {
			values = []string{""}
		}
		for _, val := range values {
			out = append(out, MSSPVal)
			out = append(out, val...)
		}
	}
	return out
}

// DecodeStatus parses a flat VAR/VAL payload. Bytes before the first VAR
// are ignored.
func DecodeStatus(payload []byte) []StatusVar {
	var (
		vars  []StatusVar
		cur   *StatusVar
		buf   []byte
		inVal bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		if inVal {
			cur.Values = append(cur.Values, string(buf))
		} else {
			cur.Name = string(buf)
		}
		buf = buf[:0]
	}
	for _, b := range payload {
		switch b {
		case MSSPVar:
			flush()
			vars = append(vars, StatusVar{})
			cur = &vars[len(vars)-1]
			inVal = false
		case MSSPVal:
			flush()
			inVal = cur != nil
		default:
			if cur != nil {
				buf = append(buf, b)
			}
		}
	}
	flush()
	return vars
}
