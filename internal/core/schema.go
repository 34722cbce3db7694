package core

import (
	"fmt"
	"strings"
)

// FieldType is the portable column-type tag a Field declares: one of the
// five variants a ColumnValue can carry.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeBytes  FieldType = "bytes"
)

// matchesValue reports whether a ColumnValue's variant is congruent with
// this field type. Null values never participate in type validation.
func (ft FieldType) matchesValue(v ColumnValue) bool {
	switch ft {
	case FieldTypeString:
		return v.Kind == String
	case FieldTypeInt:
		return v.Kind == Int
	case FieldTypeFloat:
		return v.Kind == Float
	case FieldTypeBool:
		return v.Kind == Bool
	case FieldTypeBytes:
		return v.Kind == Bytes
	default:
		return false
	}
}

func (ft FieldType) valueKindName() string {
	switch ft {
	case FieldTypeString:
		return String.String()
	case FieldTypeInt:
		return Int.String()
	case FieldTypeFloat:
		return Float.String()
	case FieldTypeBool:
		return Bool.String()
	case FieldTypeBytes:
		return Bytes.String()
	default:
		return "Unknown"
	}
}

// Field is a single named, typed column in a table schema.
type Field struct {
	Name string
	Type FieldType
}

// Index is a named, ordered list of field names a table maintains a
// secondary lookup structure over.
type Index struct {
	Name   string
	Fields []string
}

// Table is the in-store, authoritative typed description of a table: its
// fields, primary-key field list, and secondary indexes.
type Table struct {
	Name       string
	Fields     []Field
	PrimaryKey []string
	Indexes    []Index
}

// FieldPosition returns the position of name within t.Fields, or -1 if it is
// not declared.
func (t *Table) FieldPosition(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FindIndex looks up a secondary index by name.
func (t *Table) FindIndex(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// Validate checks the invariants every Table schema must satisfy: unique
// field names, a non-empty primary key whose fields all exist, and index
// field lists that reference only declared fields, with unique index names.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is required")
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("table %q must declare at least one field", t.Name)
	}

	seenFields := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("table %q has a field with an empty name", t.Name)
		}
		if seenFields[f.Name] {
			return fmt.Errorf("table %q has a duplicate field name %q", t.Name, f.Name)
		}
		seenFields[f.Name] = true
	}

	if len(t.PrimaryKey) == 0 {
		return fmt.Errorf("table %q must declare a non-empty primary key", t.Name)
	}
	for _, name := range t.PrimaryKey {
		if !seenFields[name] {
			return fmt.Errorf("table %q primary key references unknown field %q", t.Name, name)
		}
	}

	seenIndexes := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if strings.TrimSpace(idx.Name) == "" {
			return fmt.Errorf("table %q has an index with an empty name", t.Name)
		}
		if seenIndexes[idx.Name] {
			return fmt.Errorf("table %q has a duplicate index name %q", t.Name, idx.Name)
		}
		seenIndexes[idx.Name] = true
		if len(idx.Fields) == 0 {
			return fmt.Errorf("index %q on table %q must reference at least one field", idx.Name, t.Name)
		}
		for _, name := range idx.Fields {
			if !seenFields[name] {
				return fmt.Errorf("index %q on table %q references unknown field %q", idx.Name, t.Name, name)
			}
		}
	}

	return nil
}

// String renders a short human-readable summary of the table.
func (t *Table) String() string {
	return fmt.Sprintf("Table: %s (%d fields, %d indexes)", t.Name, len(t.Fields), len(t.Indexes))
}
