// Package core is the single source of truth for the relational data model:
// column values, records, field/table/index schema definitions, table
// metadata, and row payloads. It is pure data plus validation — no storage,
// no encoding.
package core

import "fmt"

// ValueKind is the sum-type tag for a ColumnValue: one of five typed
// variants, or Null.
type ValueKind int

const (
	// Null marks an explicit SQL NULL.
	Null ValueKind = iota
	String
	Int
	Float
	Bool
	Bytes
)

func (k ValueKind) String() string {
	switch k {
	case Null:
		return "Null"
	case String:
		return "String"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Bool:
		return "Bool"
	case Bytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// ColumnValue is a single typed, possibly-null column value. Equality is
// structural; ordering within a variant is the natural ordering (numeric
// for Int/Float, lexicographic for String/Bytes).
type ColumnValue struct {
	Kind     ValueKind
	StrVal   string
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	BytesVal []byte
}

// NullValue returns an explicit-NULL column value.
func NullValue() ColumnValue { return ColumnValue{Kind: Null} }

// StringValue wraps a string as a column value.
func StringValue(s string) ColumnValue { return ColumnValue{Kind: String, StrVal: s} }

// IntValue wraps a signed 64-bit integer as a column value.
func IntValue(i int64) ColumnValue { return ColumnValue{Kind: Int, IntVal: i} }

// FloatValue wraps an IEEE-754 binary64 as a column value.
func FloatValue(f float64) ColumnValue { return ColumnValue{Kind: Float, FloatVal: f} }

// BoolValue wraps a boolean as a column value.
func BoolValue(b bool) ColumnValue { return ColumnValue{Kind: Bool, BoolVal: b} }

// BytesValue wraps a byte string as a column value.
func BytesValue(b []byte) ColumnValue { return ColumnValue{Kind: Bytes, BytesVal: b} }

// Equal reports whether two column values are structurally identical.
func (v ColumnValue) Equal(other ColumnValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case String:
		return v.StrVal == other.StrVal
	case Int:
		return v.IntVal == other.IntVal
	case Float:
		return v.FloatVal == other.FloatVal
	case Bool:
		return v.BoolVal == other.BoolVal
	case Bytes:
		if len(v.BytesVal) != len(other.BytesVal) {
			return false
		}
		for i := range v.BytesVal {
			if v.BytesVal[i] != other.BytesVal[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v ColumnValue) String() string {
	switch v.Kind {
	case Null:
		return "NULL"
	case String:
		return fmt.Sprintf("%q", v.StrVal)
	case Int:
		return fmt.Sprintf("%d", v.IntVal)
	case Float:
		return fmt.Sprintf("%g", v.FloatVal)
	case Bool:
		return fmt.Sprintf("%t", v.BoolVal)
	case Bytes:
		return fmt.Sprintf("%x", v.BytesVal)
	default:
		return "<invalid>"
	}
}

// Record is an ordered sequence of column values. Length and positions
// align with the owning table's field list at insert time; a record carries
// no identity of its own.
type Record struct {
	Columns []ColumnValue
}

// NewRecord builds a Record from the given column values, in order.
func NewRecord(values ...ColumnValue) Record {
	return Record{Columns: values}
}
