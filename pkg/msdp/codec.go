package msdp

import (
	"errors"
	"fmt"
)

// Structure bytes.
const (
	VAR        byte = 1
	VAL        byte = 2
	TableOpen  byte = 3
	TableClose byte = 4
	ArrayOpen  byte = 5
	ArrayClose byte = 6
)

// MaxDepth bounds table/array nesting accepted by Decode.
const MaxDepth = 16

// ErrMalformed is returned for payloads that do not follow VAR/VAL structure.
var ErrMalformed = errors.New("malformed msdp payload")

// Var is one variable of a payload with the values that followed it.
type Var struct {
	Name   string
	Values []Value
}

// Value collapses the var's values: none is an empty string, one is itself,
// several become an array.
func (v Var) Value() Value {
	switch len(v.Values) {
	case 0:
		return String("")
	case 1:
		return v.Values[0]
	default:
		return Array(v.Values...)
	}
}

// Args returns the var's values flattened to strings. Empty strings are
// dropped.
func (v Var) Args() []string {
	var out []string
	for _, val := range v.Values {
		for _, s := range val.Flatten() {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// AppendVar appends VAR name VAL value to dst.
func AppendVar(dst []byte, name string, v Value) []byte {
	dst = append(dst, VAR)
	dst = append(dst, name...)
	dst = append(dst, VAL)
	return appendValue(dst, v)
}

// Encode returns the payload for vars. Callers frame it with
// telnet.Subnegotiation.
func Encode(vars ...Var) []byte {
	var out []byte
	for _, v := range vars {
		out = append(out, VAR)
		out = append(out, v.Name...)
		if len(v.Values) == 0 {
			out = append(out, VAL)
			continue
		}
		for _, val := range v.Values {
			out = append(out, VAL)
			out = appendValue(out, val)
		}
	}
	return out
}

func appendValue(dst []byte, v Value) []byte {
	switch v.kind {
	case KindArray:
		dst = append(dst, ArrayOpen)
		for _, it := range v.items {
			dst = append(dst, VAL)
			dst = appendValue(dst, it)
		}
		return append(dst, ArrayClose)
	case KindTable:
		dst = append(dst, TableOpen)
		for _, p := range v.pairs {
			dst = AppendVar(dst, p.Name, p.Value)
		}
		return append(dst, TableClose)
	default:
		return append(dst, scrub(v.str)...)
	}
}

// scrub drops structure bytes from scalar text so it cannot break framing.
func scrub(s string) string {
	for i := 0; i < len(s); i++ {
		if isStructure(s[i]) {
			out := make([]byte, 0, len(s))
			for j := 0; j < len(s); j++ {
				if !isStructure(s[j]) {
					out = append(out, s[j])
				}
			}
			return string(out)
		}
	}
	return s
}

func isStructure(b byte) bool {
	return b >= VAR && b <= ArrayClose
}

// Decode parses an unframed payload (IAC already unescaped) into its
// variables, in order. Several VALs after one VAR are kept as separate values.
func Decode(payload []byte) ([]Var, error) {
	d := decoder{data: payload}
	var vars []Var
	for d.pos < len(d.data) {
		if d.data[d.pos] != VAR {
			return vars, fmt.Errorf("%w: expected VAR at %d, got %d", ErrMalformed, d.pos, d.data[d.pos])
		}
		d.pos++
		v := Var{Name: d.scalar()}
		for d.pos < len(d.data) && d.data[d.pos] == VAL {
			d.pos++
			val, err := d.value(0)
			if err != nil {
				return vars, fmt.Errorf("var %s: %w", v.Name, err)
			}
			v.Values = append(v.Values, val)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) scalar() string {
	start := d.pos
	for d.pos < len(d.data) && !isStructure(d.data[d.pos]) {
		d.pos++
	}
	return string(d.data[start:d.pos])
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, MaxDepth)
	}
	if d.pos >= len(d.data) {
		return String(""), nil
	}
	switch d.data[d.pos] {
	case TableOpen:
		d.pos++
		return d.table(depth + 1)
	case ArrayOpen:
		d.pos++
		return d.array(depth + 1)
	default:
		return String(d.scalar()), nil
	}
}

func (d *decoder) table(depth int) (Value, error) {
	var pairs []Pair
	for d.pos < len(d.data) && d.data[d.pos] != TableClose {
		if d.data[d.pos] != VAR {
			return Value{}, fmt.Errorf("%w: expected VAR in table at %d", ErrMalformed, d.pos)
		}
		d.pos++
		name := d.scalar()
		if d.pos >= len(d.data) || d.data[d.pos] != VAL {
			return Value{}, fmt.Errorf("%w: expected VAL after table key %q", ErrMalformed, name)
		}
		d.pos++
		val, err := d.value(depth)
		if err != nil {
			return Value{}, err
		}
		pairs = append(pairs, Pair{Name: name, Value: val})
	}
	if d.pos >= len(d.data) {
		return Value{}, fmt.Errorf("%w: unclosed table", ErrMalformed)
	}
	d.pos++
	return Table(pairs...), nil
}

func (d *decoder) array(depth int) (Value, error) {
	var items []Value
	for d.pos < len(d.data) && d.data[d.pos] != ArrayClose {
		if d.data[d.pos] != VAL {
			return Value{}, fmt.Errorf("%w: expected VAL in array at %d", ErrMalformed, d.pos)
		}
		d.pos++
		val, err := d.value(depth)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}
	if d.pos >= len(d.data) {
		return Value{}, fmt.Errorf("%w: unclosed array", ErrMalformed)
	}
	d.pos++
	return Array(items...), nil
}
