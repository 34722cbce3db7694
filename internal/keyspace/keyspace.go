// Package keyspace packs the relational store's logical entities into the
// flat, ordered key-value key space the storage engine exposes. Key shapes
// follow spec.md §4.1 exactly, including the documented quirk that an Index
// key carries the table name but not the index name.
package keyspace

import "relstore/internal/tuple"

// Data-prefix tags. Each lives under the root Subspace and partitions the
// key space so that table metadata, row payloads, and the two kinds of
// indexes never collide, regardless of what user-supplied names or row ids
// happen to look like once packed.
const (
	// Table -
	// key   - root/Table/table_name
	// value - encoded core.Table schema
	tagTable = 1

	// TableMeta -
	// key   - root/TableMeta/table_name
	// value - encoded core.TableMetadata (row-id allocation counter)
	tagTableMeta = 2

	// Row -
	// key   - root/Row/table_name/row_id
	// value - encoded core.Row payload
	tagRow = 3

	// PrimaryKey -
	// key   - root/PrimaryKey/table_name/pk_tuple
	// value - packed row_id (see tuple.PackInt64)
	tagPrimaryKey = 4

	// Index -
	// key   - root/Index/table_name/index_value_tuple
	// value - packed row_id (see tuple.PackInt64)
	//
	// Note the absence of the index name: two indexes on the same table
	// that happen to produce the same value tuple address the same key.
	// This is inherited from the storage layer this package replicates,
	// not a design choice made here.
	tagIndex = 5
)

// Subspace scopes every key this package produces under a caller-chosen
// root prefix, so multiple logical stores can share one underlying engine.
type Subspace struct {
	root []byte
}

// NewSubspace returns a Subspace rooted at the given prefix. An empty prefix
// is valid and scopes keys under the engine's entire key space.
func NewSubspace(root []byte) Subspace {
	return Subspace{root: append([]byte(nil), root...)}
}

func (s Subspace) prefixed(tag byte, parts ...tuple.Value) []byte {
	out := append([]byte(nil), s.root...)
	out = append(out, tag)
	return append(out, tuple.Pack(parts...)...)
}

// TableKey addresses the stored schema for a table.
func (s Subspace) TableKey(tableName string) []byte {
	return s.prefixed(tagTable, tuple.Str(tableName))
}

// TableMetaKey addresses the stored row-id allocation counter for a table.
func (s Subspace) TableMetaKey(tableName string) []byte {
	return s.prefixed(tagTableMeta, tuple.Str(tableName))
}

// RowKey addresses the stored row payload for a given table and row id.
func (s Subspace) RowKey(tableName string, rowID int64) []byte {
	return s.prefixed(tagRow, tuple.Str(tableName), tuple.Int(rowID))
}

// RowPrefix returns the key prefix common to every row of tableName, for use
// with range scans.
func (s Subspace) RowPrefix(tableName string) []byte {
	return s.prefixed(tagRow, tuple.Str(tableName))
}

// PrimaryKeyKey addresses the row-id lookup entry for a primary-key tuple.
func (s Subspace) PrimaryKeyKey(tableName string, pkValues ...tuple.Value) []byte {
	parts := append([]tuple.Value{tuple.Str(tableName)}, pkValues...)
	return s.prefixed(tagPrimaryKey, parts...)
}

// IndexKey addresses the row-id lookup entry for a secondary-index value
// tuple. The index name is deliberately not part of the key, matching
// spec.md §4.1.
func (s Subspace) IndexKey(tableName string, indexValues ...tuple.Value) []byte {
	parts := append([]tuple.Value{tuple.Str(tableName)}, indexValues...)
	return s.prefixed(tagIndex, parts...)
}
