package codec

import "relstore/internal/core"

// jsonField mirrors core.Field for serialization.
type jsonField struct {
	Name string         `json:"name"`
	Type core.FieldType `json:"type"`
}

// jsonIndex mirrors core.Index for serialization.
type jsonIndex struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// jsonTable mirrors core.Table for serialization.
type jsonTable struct {
	Name       string      `json:"name"`
	Fields     []jsonField `json:"fields"`
	PrimaryKey []string    `json:"primaryKey"`
	Indexes    []jsonIndex `json:"indexes"`
}

// EncodeTable serializes a table schema to its persisted byte form.
func EncodeTable(t core.Table) ([]byte, error) {
	doc := jsonTable{
		Name:       t.Name,
		PrimaryKey: t.PrimaryKey,
	}
	for _, f := range t.Fields {
		doc.Fields = append(doc.Fields, jsonField{Name: f.Name, Type: f.Type})
	}
	for _, idx := range t.Indexes {
		doc.Indexes = append(doc.Indexes, jsonIndex{Name: idx.Name, Fields: idx.Fields})
	}
	return encodeFramed(doc)
}

// DecodeTable deserializes a table schema previously written by EncodeTable.
func DecodeTable(b []byte) (core.Table, error) {
	var doc jsonTable
	if err := decodeFramed(b, &doc); err != nil {
		return core.Table{}, err
	}
	t := core.Table{
		Name:       doc.Name,
		PrimaryKey: doc.PrimaryKey,
	}
	for _, f := range doc.Fields {
		t.Fields = append(t.Fields, core.Field{Name: f.Name, Type: f.Type})
	}
	for _, idx := range doc.Indexes {
		t.Indexes = append(t.Indexes, core.Index{Name: idx.Name, Fields: idx.Fields})
	}
	return t, nil
}

// jsonTableMetadata mirrors core.TableMetadata for serialization.
type jsonTableMetadata struct {
	Name     string `json:"name"`
	MaxRowID uint64 `json:"maxRowId"`
}

// EncodeTableMetadata serializes table metadata to its persisted byte form.
func EncodeTableMetadata(m core.TableMetadata) ([]byte, error) {
	return encodeFramed(jsonTableMetadata{Name: m.Name, MaxRowID: m.MaxRowID})
}

// DecodeTableMetadata deserializes table metadata previously written by
// EncodeTableMetadata.
func DecodeTableMetadata(b []byte) (core.TableMetadata, error) {
	var doc jsonTableMetadata
	if err := decodeFramed(b, &doc); err != nil {
		return core.TableMetadata{}, err
	}
	return core.TableMetadata{Name: doc.Name, MaxRowID: doc.MaxRowID}, nil
}
