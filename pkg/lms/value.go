package lms

import (
	"strconv"
	"strings"
)

// Kind is the storage kind of a Value.
type Kind int

const (
	// Null is an SQL NULL.
	Null Kind = iota
	// Int is an integer column value.
	Int
	// Text is a character column value.
	Text
)

// Value is a single LMS column value. Columns are compared on their textual form,
// so an integer 1 and a text "1" are equal, the way the LMS itself compares them.
type Value struct {
	kind Kind
	i    int64
	s    string
}

// IntValue returns an integer value.
func IntValue(n int64) Value { return Value{kind: Int, i: n} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{kind: Text, s: s} }

// NullValue returns NULL.
func NullValue() Value { return Value{kind: Null} }

// BoolValue returns the 0/1 integer the LMS uses for flags.
func BoolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// ParseValue builds a value from a scanned column; nil means NULL.
func ParseValue(s *string) Value {
	if s == nil {
		return NullValue()
	}
	return TextValue(*s)
}

// Kind returns the storage kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == Null }

// String returns the textual form; NULL renders as "null".
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Text:
		return v.s
	default:
		return "null"
	}
}

// Int64 returns the integer form. NULL, empty and non-numeric text are 0.
func (v Value) Int64() int64 {
	switch v.kind {
	case Int:
		return v.i
	case Text:
		s := strings.TrimSpace(v.s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		// Decimal columns such as assign.grade scan as "100.00000"
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

// Bool reports whether v holds a true flag (integer 1).
func (v Value) Bool() bool { return v.Int64() == 1 }

// Equal compares two values the way the LMS does: NULL only equals NULL, numbers
// compare numerically and anything else compares as text.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.numeric() && o.numeric() {
		return v.Int64() == o.Int64()
	}
	return v.String() == o.String()
}

// Arg returns the value as a query argument.
func (v Value) Arg() any {
	switch v.kind {
	case Int:
		return v.i
	case Text:
		return v.s
	default:
		return nil
	}
}

func (v Value) numeric() bool {
	if v.kind == Int {
		return true
	}
	if v.kind != Text {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
	return err == nil
}
