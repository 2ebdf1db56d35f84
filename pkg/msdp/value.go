package msdp

import (
	"strings"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindArray
	KindTable
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "STRING"
	case KindArray:
		return "ARRAY"
	case KindTable:
		return "TABLE"
	default:
		return "UNKNOWN"
	}
}

// Value is a reported value: a string, an array of values, or an ordered
// table of named values.
type Value struct {
	kind  Kind
	str   string
	items []Value
	pairs []Pair
}

// Pair is one named entry of a table.
type Pair struct {
	Name  string
	Value Value
}

// String returns a scalar value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Array returns an array value.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// Strings returns an array of scalar values.
func Strings(ss ...string) Value {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}
	return Array(items...)
}

// Table returns a table value. Pair order is preserved on the wire.
func Table(pairs ...Pair) Value {
	return Value{kind: KindTable, pairs: pairs}
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Str returns the scalar content, or "" for arrays and tables.
func (v Value) Str() string { return v.str }

// Items returns the elements of an array value.
func (v Value) Items() []Value { return v.items }

// Pairs returns the entries of a table value.
func (v Value) Pairs() []Pair { return v.pairs }

// Lookup returns the table entry called name.
func (v Value) Lookup(name string) (Value, bool) {
	for _, p := range v.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Flatten returns the scalar strings of v, depth first.
func (v Value) Flatten() []string {
	switch v.kind {
	case KindArray:
		var out []string
		for _, it := range v.items {
			out = append(out, it.Flatten()...)
		}
		return out
	case KindTable:
		var out []string
		for _, p := range v.pairs {
			out = append(out, p.Value.Flatten()...)
		}
		return out
	default:
		return []string{v.str}
	}
}

// Equal reports whether v and o have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if v.pairs[i].Name != o.pairs[i].Name || !v.pairs[i].Value.Equal(o.pairs[i].Value) {
				return false
			}
		}
		return true
	default:
		return v.str == o.str
	}
}

// String renders v for logs: arrays as [a b], tables as {k=v}.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindArray:
		sb.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			it.write(sb)
		}
		sb.WriteByte(']')
	case KindTable:
		sb.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.Name)
			sb.WriteByte('=')
			p.Value.write(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(v.str)
	}
}
