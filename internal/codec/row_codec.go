package codec

import (
	"fmt"

	"relstore/internal/core"
	"relstore/internal/kverr"
)

// jsonColumn is a tagged union of the five column-value variants plus null,
// one populated field per variant — structurally the same shape as Avro's
// [null, string, int, float, boolean, bytes] union.
type jsonColumn struct {
	Type  string   `json:"type"`
	Str   *string  `json:"str,omitempty"`
	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Bool  *bool    `json:"bool,omitempty"`
	Bytes []byte   `json:"bytes,omitempty"`
}

const (
	unionNull   = "null"
	unionString = "string"
	unionInt    = "int"
	unionFloat  = "float"
	unionBool   = "bool"
	unionBytes  = "bytes"
)

func columnValueToJSON(v *core.ColumnValue) jsonColumn {
	if v == nil {
		return jsonColumn{Type: unionNull}
	}
	switch v.Kind {
	case core.String:
		s := v.StrVal
		return jsonColumn{Type: unionString, Str: &s}
	case core.Int:
		i := v.IntVal
		return jsonColumn{Type: unionInt, Int: &i}
	case core.Float:
		f := v.FloatVal
		return jsonColumn{Type: unionFloat, Float: &f}
	case core.Bool:
		b := v.BoolVal
		return jsonColumn{Type: unionBool, Bool: &b}
	case core.Bytes:
		return jsonColumn{Type: unionBytes, Bytes: v.BytesVal}
	default:
		return jsonColumn{Type: unionNull}
	}
}

func columnValueFromJSON(c jsonColumn) (*core.ColumnValue, error) {
	switch c.Type {
	case unionNull, "":
		return nil, nil
	case unionString:
		if c.Str == nil {
			return nil, fmt.Errorf("codec: column tagged %q missing str payload", c.Type)
		}
		v := core.StringValue(*c.Str)
		return &v, nil
	case unionInt:
		if c.Int == nil {
			return nil, fmt.Errorf("codec: column tagged %q missing int payload", c.Type)
		}
		v := core.IntValue(*c.Int)
		return &v, nil
	case unionFloat:
		if c.Float == nil {
			return nil, fmt.Errorf("codec: column tagged %q missing float payload", c.Type)
		}
		v := core.FloatValue(*c.Float)
		return &v, nil
	case unionBool:
		if c.Bool == nil {
			return nil, fmt.Errorf("codec: column tagged %q missing bool payload", c.Type)
		}
		v := core.BoolValue(*c.Bool)
		return &v, nil
	case unionBytes:
		v := core.BytesValue(c.Bytes)
		return &v, nil
	default:
		return nil, fmt.Errorf("codec: unknown column union tag %q", c.Type)
	}
}

// jsonRow is the wire shape of a Row payload: an array of tagged-union
// columns.
type jsonRow struct {
	Columns []jsonColumn `json:"columns"`
}

// EncodeRow serializes a row payload to its persisted byte form.
func EncodeRow(row core.Row) ([]byte, error) {
	doc := jsonRow{Columns: make([]jsonColumn, len(row.Columns))}
	for i, v := range row.Columns {
		doc.Columns[i] = columnValueToJSON(v)
	}
	return encodeFramed(doc)
}

// DecodeRow deserializes a row payload previously written by EncodeRow.
func DecodeRow(b []byte) (core.Row, error) {
	var doc jsonRow
	if err := decodeFramed(b, &doc); err != nil {
		return core.Row{}, err
	}
	row := core.Row{Columns: make([]*core.ColumnValue, len(doc.Columns))}
	for i, c := range doc.Columns {
		v, err := columnValueFromJSON(c)
		if err != nil {
			return core.Row{}, kverr.NewSerializationFailure(err)
		}
		row.Columns[i] = v
	}
	return row, nil
}
