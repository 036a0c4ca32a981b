package commands

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the decoded value variants.
type ValueKind uint8

const (
	// ValueString is a plain string value (alias name or raw argument).
	ValueString ValueKind = iota

	// ValueInt is a numeric value decoded from two-digit hex.
	ValueInt

	// ValueTuple is a comma-separated multi-part value.
	ValueTuple
)

// Value is a decoded inbound command value. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Tuple []string
}

// StringValue returns a string-kind Value.
func StringValue(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

// IntValue returns an int-kind Value.
func IntValue(i int64) Value {
	return Value{Kind: ValueInt, Int: i}
}

// TupleValue returns a tuple-kind Value.
func TupleValue(parts ...string) Value {
	return Value{Kind: ValueTuple, Tuple: parts}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueTuple:
		return strings.Join(v.Tuple, ",")
	default:
		return v.Str
	}
}

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueInt:
		return v.Int == o.Int
	case ValueTuple:
		if len(v.Tuple) != len(o.Tuple) {
			return false
		}
		for i := range v.Tuple {
			if v.Tuple[i] != o.Tuple[i] {
				return false
			}
		}
		return true
	default:
		return v.Str == o.Str
	}
}

// Update is a decoded inbound state change: which zone reported it,
// the human-readable command name, and the decoded value.
type Update struct {
	Zone    string
	Command string
	Value   Value
}
