package core

// TableMetadata is the per-table monotonic row-id counter. MaxRowID is
// strictly increasing on each successful insert; zero denotes an empty
// table.
type TableMetadata struct {
	Name     string
	MaxRowID uint64
}

// Row is the on-disk payload of a single row: a positional list of
// optionally-null column values, aligned with the owning table's field
// order at the time of insert. A nil entry encodes an explicit SQL NULL.
type Row struct {
	Columns []*ColumnValue
}

// RecordToRow converts a Record into its Row payload representation, turning
// explicit Null column values into nil entries.
func RecordToRow(rec Record) Row {
	row := Row{Columns: make([]*ColumnValue, len(rec.Columns))}
	for i, v := range rec.Columns {
		if v.Kind == Null {
			continue
		}
		val := v
		row.Columns[i] = &val
	}
	return row
}

// ToRecord converts a Row payload back into a Record, turning nil entries
// back into explicit Null column values.
func (r Row) ToRecord() Record {
	rec := Record{Columns: make([]ColumnValue, len(r.Columns))}
	for i, v := range r.Columns {
		if v == nil {
			rec.Columns[i] = NullValue()
			continue
		}
		rec.Columns[i] = *v
	}
	return rec
}
