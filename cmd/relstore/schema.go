package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"relstore/internal/core"
)

// tomlField maps [[fields]] in a table-definition file.
type tomlField struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// tomlIndex maps [[indexes]].
type tomlIndex struct {
	Name   string   `toml:"name"`
	Fields []string `toml:"fields"`
}

// tomlTableDoc is the top-level document passed to `relstore create-table`.
type tomlTableDoc struct {
	Name       string      `toml:"name"`
	PrimaryKey []string    `toml:"primary_key"`
	Fields     []tomlField `toml:"fields"`
	Indexes    []tomlIndex `toml:"indexes"`
}

func parseTableFile(path string) (core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Table{}, fmt.Errorf("relstore: open table file %q: %w", path, err)
	}
	defer f.Close()
	return parseTable(f)
}

func parseTable(r io.Reader) (core.Table, error) {
	var doc tomlTableDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return core.Table{}, fmt.Errorf("relstore: decode table file: %w", err)
	}

	table := core.Table{
		Name:       doc.Name,
		PrimaryKey: doc.PrimaryKey,
	}
	for _, f := range doc.Fields {
		ft, err := parseFieldType(f.Type)
		if err != nil {
			return core.Table{}, fmt.Errorf("relstore: field %q: %w", f.Name, err)
		}
		table.Fields = append(table.Fields, core.Field{Name: f.Name, Type: ft})
	}
	for _, idx := range doc.Indexes {
		table.Indexes = append(table.Indexes, core.Index{Name: idx.Name, Fields: idx.Fields})
	}
	return table, nil
}

func parseFieldType(raw string) (core.FieldType, error) {
	switch core.FieldType(raw) {
	case core.FieldTypeString, core.FieldTypeInt, core.FieldTypeFloat, core.FieldTypeBool, core.FieldTypeBytes:
		return core.FieldType(raw), nil
	default:
		return "", fmt.Errorf("unknown field type %q", raw)
	}
}

// tomlValue is one positional entry in a record-definition file. Exactly one
// of its fields is populated, or the entry is entirely empty to encode an
// explicit NULL — mirroring the tagged-union shape internal/codec uses for
// the same Null/String/Int/Float/Bool/Bytes sum type.
type tomlValue struct {
	Null  bool     `toml:"null"`
	Str   *string  `toml:"str"`
	Int   *int64   `toml:"int"`
	Float *float64 `toml:"float"`
	Bool  *bool    `toml:"bool"`
	// Bytes is base64-encoded: TOML has no native byte-string type.
	Bytes *string `toml:"bytes"`
}

// tomlRecordDoc is the top-level document passed to `relstore insert`.
type tomlRecordDoc struct {
	Columns []tomlValue `toml:"columns"`
}

func parseRecordFile(path string) (core.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Record{}, fmt.Errorf("relstore: open record file %q: %w", path, err)
	}
	defer f.Close()
	return parseRecord(f)
}

func parseRecord(r io.Reader) (core.Record, error) {
	var doc tomlRecordDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return core.Record{}, fmt.Errorf("relstore: decode record file: %w", err)
	}

	rec := core.Record{Columns: make([]core.ColumnValue, len(doc.Columns))}
	for i, v := range doc.Columns {
		cv, err := tomlValueToColumnValue(v)
		if err != nil {
			return core.Record{}, fmt.Errorf("relstore: column %d: %w", i, err)
		}
		rec.Columns[i] = cv
	}
	return rec, nil
}

func tomlValueToColumnValue(v tomlValue) (core.ColumnValue, error) {
	switch {
	case v.Null:
		return core.NullValue(), nil
	case v.Str != nil:
		return core.StringValue(*v.Str), nil
	case v.Int != nil:
		return core.IntValue(*v.Int), nil
	case v.Float != nil:
		return core.FloatValue(*v.Float), nil
	case v.Bool != nil:
		return core.BoolValue(*v.Bool), nil
	case v.Bytes != nil:
		decoded, err := base64.StdEncoding.DecodeString(*v.Bytes)
		if err != nil {
			return core.ColumnValue{}, fmt.Errorf("invalid base64 bytes value: %w", err)
		}
		return core.BytesValue(decoded), nil
	default:
		return core.NullValue(), nil
	}
}
