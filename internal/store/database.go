// Package store composes the tuple codec, row/schema codec, key-space
// layout, and KV facade into the relational operations: CreateTable,
// AddIndex, Insert, and GetRecordByPK. It owns the key-space layout and is
// the sole writer of every persistent structure the layer defines.
package store

import (
	"context"
	"fmt"

	"relstore/internal/codec"
	"relstore/internal/core"
	"relstore/internal/keyspace"
	"relstore/internal/kv"
	"relstore/internal/kverr"
	"relstore/internal/tuple"
)

// Database is the relational storage layer over a KV engine. The zero value
// is not usable; construct with New.
type Database struct {
	engine kv.Engine
	space  keyspace.Subspace
}

// New returns a Database that stores everything under root within engine's
// key space. Multiple Databases may share one engine under disjoint roots.
func New(engine kv.Engine, root []byte) *Database {
	return &Database{engine: engine, space: keyspace.NewSubspace(root)}
}

// CreateTable writes table's schema. It does not check for prior existence:
// a second call for the same name silently overwrites the schema. This
// matches the layer's documented last-writer-wins contract; a future
// existence check would fail with TableAlreadyExists instead.
func (d *Database) CreateTable(ctx context.Context, table core.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	return d.engine.Transact(ctx, func(tx kv.Tx) error {
		encoded, err := codec.EncodeTable(table)
		if err != nil {
			return err
		}
		return tx.Set(ctx, d.space.TableKey(table.Name), encoded)
	})
}

// AddIndex appends index to table_name's schema as an atomic
// read-modify-write on the schema key. It does not back-fill existing rows:
// rows inserted before the call are invisible to the new index until
// reinserted.
func (d *Database) AddIndex(ctx context.Context, tableName string, index core.Index) error {
	return d.engine.Transact(ctx, func(tx kv.Tx) error {
		table, ok, err := d.getTableInternal(ctx, tx, tableName)
		if err != nil {
			return err
		}
		if !ok {
			return kverr.NewTableNotFound(tableName)
		}
		table.Indexes = append(table.Indexes, index)
		encoded, err := codec.EncodeTable(table)
		if err != nil {
			return err
		}
		return tx.Set(ctx, d.space.TableKey(tableName), encoded)
	})
}

// Insert validates record against table_name's schema and, within a single
// transaction, allocates a row id, writes the primary-key and secondary
// index entries, writes the row payload, and bumps the table's row-id
// counter. If table_name is unknown, Insert is silently a no-op: this
// mirrors the layer's documented current behavior rather than returning
// TableNotFound.
//
// Writes are blind: a record sharing a primary key with an existing row
// overwrites the PrimaryKey index entry in place, orphaning the previous
// row payload under its old row id. This is the documented uniqueness
// contract, not a bug to be fixed here.
func (d *Database) Insert(ctx context.Context, tableName string, record core.Record) error {
	return d.engine.Transact(ctx, func(tx kv.Tx) error {
		table, ok, err := d.getTableInternal(ctx, tx, tableName)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := validateRecord(table, record); err != nil {
			return err
		}

		pk, err := tupleForFields(table, table.PrimaryKey, record)
		if err != nil {
			return err
		}

		meta, err := d.getOrCreateTableMeta(ctx, tx, tableName)
		if err != nil {
			return err
		}
		rowID := int64(meta.MaxRowID)

		rowIDBytes := tuple.PackInt64(rowID)
		if err := tx.Set(ctx, d.space.PrimaryKeyKey(tableName, pk...), rowIDBytes); err != nil {
			return err
		}

		for _, idx := range table.Indexes {
			idxTuple, err := tupleForFields(table, idx.Fields, record)
			if err != nil {
				return err
			}
			if err := tx.Set(ctx, d.space.IndexKey(tableName, idxTuple...), rowIDBytes); err != nil {
				return err
			}
		}

		row := core.RecordToRow(record)
		encodedRow, err := codec.EncodeRow(row)
		if err != nil {
			return err
		}
		if err := tx.Set(ctx, d.space.RowKey(tableName, rowID), encodedRow); err != nil {
			return err
		}

		meta.MaxRowID++
		encodedMeta, err := codec.EncodeTableMetadata(meta)
		if err != nil {
			return err
		}
		return tx.Set(ctx, d.space.TableMetaKey(tableName), encodedMeta)
	})
}

// GetRecordByPK indirects through the primary-key index to fetch and decode
// a row. It returns ok=false, with no error, both when the primary key is
// absent and when the PK index points at a row payload that no longer
// exists (an integrity violation reported as a miss rather than an error).
func (d *Database) GetRecordByPK(ctx context.Context, tableName string, pkValues ...tuple.Value) (record core.Record, ok bool, err error) {
	txErr := d.engine.Transact(ctx, func(tx kv.Tx) error {
		raw, found, err := tx.Get(ctx, d.space.PrimaryKeyKey(tableName, pkValues...))
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		rowID, err := tuple.UnpackInt64(raw)
		if err != nil {
			return kverr.NewSerializationFailure(err)
		}

		rowBytes, found, err := tx.Get(ctx, d.space.RowKey(tableName, rowID))
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		row, err := codec.DecodeRow(rowBytes)
		if err != nil {
			return err
		}
		record = row.ToRecord()
		ok = true
		return nil
	})
	if txErr != nil {
		return core.Record{}, false, txErr
	}
	return record, ok, nil
}

// GetTable reads and decodes table_name's schema in its own transaction.
// Absence is reported as ok=false, not an error.
func (d *Database) GetTable(ctx context.Context, tableName string) (table core.Table, ok bool, err error) {
	txErr := d.engine.Transact(ctx, func(tx kv.Tx) error {
		t, found, err := d.getTableInternal(ctx, tx, tableName)
		table, ok = t, found
		return err
	})
	if txErr != nil {
		return core.Table{}, false, txErr
	}
	return table, ok, nil
}

// GetTableMetadata reads table_name's row-id allocation counter in its own
// transaction. Absence is reported as ok=false, not an error. This accessor
// is not part of the write path; it exists so callers (and tests) can
// observe max_row_id without reaching into storage internals.
func (d *Database) GetTableMetadata(ctx context.Context, tableName string) (meta core.TableMetadata, ok bool, err error) {
	txErr := d.engine.Transact(ctx, func(tx kv.Tx) error {
		raw, found, err := tx.Get(ctx, d.space.TableMetaKey(tableName))
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		m, err := codec.DecodeTableMetadata(raw)
		if err != nil {
			return err
		}
		meta, ok = m, true
		return nil
	})
	if txErr != nil {
		return core.TableMetadata{}, false, txErr
	}
	return meta, ok, nil
}

// getTableInternal reads and decodes a table's schema under an already-open
// transaction.
func (d *Database) getTableInternal(ctx context.Context, tx kv.Tx, tableName string) (core.Table, bool, error) {
	raw, ok, err := tx.Get(ctx, d.space.TableKey(tableName))
	if err != nil {
		return core.Table{}, false, err
	}
	if !ok {
		return core.Table{}, false, nil
	}
	table, err := codec.DecodeTable(raw)
	if err != nil {
		return core.Table{}, false, err
	}
	return table, true, nil
}

// getOrCreateTableMeta reads table_name's metadata, or lazily creates and
// writes (name, max_row_id=0) if none exists yet. The write participates in
// the caller's transaction, so on retry the metadata is observed as already
// existing.
func (d *Database) getOrCreateTableMeta(ctx context.Context, tx kv.Tx, tableName string) (core.TableMetadata, error) {
	raw, ok, err := tx.Get(ctx, d.space.TableMetaKey(tableName))
	if err != nil {
		return core.TableMetadata{}, err
	}
	if ok {
		return codec.DecodeTableMetadata(raw)
	}

	meta := core.TableMetadata{Name: tableName, MaxRowID: 0}
	encoded, err := codec.EncodeTableMetadata(meta)
	if err != nil {
		return core.TableMetadata{}, err
	}
	if err := tx.Set(ctx, d.space.TableMetaKey(tableName), encoded); err != nil {
		return core.TableMetadata{}, err
	}
	return meta, nil
}

// validateRecord pairs the first min(|fields|, |record.columns|) fields of
// the schema with record's columns by position. Trailing extras on either
// side are ignored; Null columns never participate in validation. This is
// the layer's documented partial-coverage contract, not an oversight.
func validateRecord(table core.Table, record core.Record) error {
	n := len(table.Fields)
	if len(record.Columns) < n {
		n = len(record.Columns)
	}
	for i := 0; i < n; i++ {
		field := table.Fields[i]
		value := record.Columns[i]
		if value.Kind == core.Null {
			continue
		}
		if !fieldMatches(field.Type, value) {
			return kverr.NewMismatchedColumnType(string(field.Type), value.Kind.String())
		}
	}
	return nil
}

func fieldMatches(ft core.FieldType, v core.ColumnValue) bool {
	switch ft {
	case core.FieldTypeString:
		return v.Kind == core.String
	case core.FieldTypeInt:
		return v.Kind == core.Int
	case core.FieldTypeFloat:
		return v.Kind == core.Float
	case core.FieldTypeBool:
		return v.Kind == core.Bool
	case core.FieldTypeBytes:
		return v.Kind == core.Bytes
	default:
		return false
	}
}

// tupleForFields looks up each named field's position in the schema and
// fetches the corresponding column from record, failing with MissingColumn
// if the field is undeclared or the record is too short to carry it.
func tupleForFields(table core.Table, fieldNames []string, record core.Record) ([]tuple.Value, error) {
	values := make([]tuple.Value, 0, len(fieldNames))
	for _, name := range fieldNames {
		pos := table.FieldPosition(name)
		if pos < 0 {
			return nil, kverr.NewMissingColumn(name)
		}
		if pos >= len(record.Columns) {
			return nil, kverr.NewMissingColumn(name)
		}
		v, err := columnValueToTuple(record.Columns[pos])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func columnValueToTuple(v core.ColumnValue) (tuple.Value, error) {
	switch v.Kind {
	case core.Null:
		return tuple.Null(), nil
	case core.String:
		return tuple.Str(v.StrVal), nil
	case core.Int:
		return tuple.Int(v.IntVal), nil
	case core.Float:
		return tuple.Float(v.FloatVal), nil
	case core.Bool:
		return tuple.Bool(v.BoolVal), nil
	case core.Bytes:
		return tuple.Bytes(v.BytesVal), nil
	default:
		return tuple.Value{}, fmt.Errorf("store: unknown column value kind %v", v.Kind)
	}
}
