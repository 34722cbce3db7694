package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relstore/internal/core"
	"relstore/internal/kv"
	"relstore/internal/kverr"
	"relstore/internal/tuple"
)

func personTable() core.Table {
	return core.Table{
		Name: "Person",
		Fields: []core.Field{
			{Name: "name", Type: core.FieldTypeString},
			{Name: "age", Type: core.FieldTypeInt},
			{Name: "height", Type: core.FieldTypeFloat},
			{Name: "is_married", Type: core.FieldTypeBool},
			{Name: "photo", Type: core.FieldTypeBytes},
		},
		PrimaryKey: []string{"name"},
	}
}

func newTestDatabase() *Database {
	return New(kv.NewMemoryEngine(), []byte("root"))
}

// S1: create-and-fetch schema.
func TestCreateAndFetchSchema(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	table := personTable()

	require.NoError(t, db.CreateTable(ctx, table))

	got, ok, err := db.GetTable(ctx, "Person")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, table, got)
}

// S2: single insert round-trip.
func TestSingleInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	rec := core.NewRecord(
		core.StringValue("John"),
		core.IntValue(20),
		core.FloatValue(20.5),
		core.BoolValue(true),
		core.BytesValue([]byte("arbitrary data")),
	)
	require.NoError(t, db.Insert(ctx, "Person", rec))

	got, ok, err := db.GetRecordByPK(ctx, "Person", tuple.Str("John"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Columns, len(rec.Columns))
	for i := range rec.Columns {
		assert.True(t, rec.Columns[i].Equal(got.Columns[i]))
	}
}

// S3: bulk insert and lookup.
func TestBulkInsertAndLookup(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	names := make([]string, 10)
	for i := 0; i < 10; i++ {
		name := "John " + string(rune('0'+i))
		names[i] = name
		rec := core.NewRecord(
			core.StringValue(name),
			core.IntValue(int64(i)),
			core.FloatValue(float64(i)),
			core.BoolValue(i%2 == 0),
			core.BytesValue([]byte("arbitrary data")),
		)
		require.NoError(t, db.Insert(ctx, "Person", rec))
	}

	for i, name := range names {
		got, ok, err := db.GetRecordByPK(ctx, "Person", tuple.Str(name))
		require.NoError(t, err)
		require.True(t, ok)
		gotAge, _ := got.Columns[1].IntVal, true
		assert.Equal(t, int64(i), gotAge)
	}

	meta, ok, err := db.GetTableMetadata(ctx, "Person")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), meta.MaxRowID)
}

// S4: index creation on existing table.
func TestAddIndexThenInsertWritesIndexEntry(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	require.NoError(t, db.AddIndex(ctx, "Person", core.Index{Name: "idx_age", Fields: []string{"age"}}))

	table, ok, err := db.GetTable(ctx, "Person")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, table.Indexes, 1)
	assert.Equal(t, "idx_age", table.Indexes[0].Name)
	assert.Equal(t, []string{"age"}, table.Indexes[0].Fields)

	rec := core.NewRecord(
		core.StringValue("John"),
		core.IntValue(30),
		core.FloatValue(1.8),
		core.BoolValue(false),
		core.BytesValue(nil),
	)
	require.NoError(t, db.Insert(ctx, "Person", rec))

	indexKey := db.space.IndexKey("Person", tuple.Int(30))
	var found bool
	var rawRowID []byte
	err = db.engine.Transact(ctx, func(tx kv.Tx) error {
		v, ok, err := tx.Get(ctx, indexKey)
		found = ok
		rawRowID = v
		return err
	})
	require.NoError(t, err)
	require.True(t, found)
	rowID, err := tuple.UnpackInt64(rawRowID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rowID)
}

// S5: type mismatch.
func TestInsertTypeMismatchFailsAndLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	rec := core.NewRecord(
		core.StringValue("John"),
		core.StringValue("twenty"),
		core.FloatValue(20.5),
		core.BoolValue(true),
		core.BytesValue(nil),
	)
	err := db.Insert(ctx, "Person", rec)
	require.Error(t, err)
	assert.True(t, kverr.IsKind(err, kverr.MismatchedColumnType))

	_, ok, err := db.GetRecordByPK(ctx, "Person", tuple.Str("John"))
	require.NoError(t, err)
	assert.False(t, ok)

	meta, ok, err := db.GetTableMetadata(ctx, "Person")
	require.NoError(t, err)
	assert.False(t, ok || meta.MaxRowID != 0)
}

func TestInsertOnUnknownTableIsSilentNoOp(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()

	err := db.Insert(ctx, "Ghost", core.NewRecord(core.StringValue("x")))
	assert.NoError(t, err)

	_, ok, err := db.GetTable(ctx, "Ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertMissingPrimaryKeyColumnFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	err := db.Insert(ctx, "Person", core.NewRecord())
	require.Error(t, err)
	assert.True(t, kverr.IsKind(err, kverr.MissingColumn))
}

func TestCreateTableOverwritesWithoutExistenceCheck(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	original := personTable()
	require.NoError(t, db.CreateTable(ctx, original))

	replacement := core.Table{
		Name:       "Person",
		Fields:     []core.Field{{Name: "nickname", Type: core.FieldTypeString}},
		PrimaryKey: []string{"nickname"},
	}
	require.NoError(t, db.CreateTable(ctx, replacement))

	got, ok, err := db.GetTable(ctx, "Person")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, replacement, got)
}

func TestDuplicatePrimaryKeyOverwritesIndexEntryAndOrphansOldRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	first := core.NewRecord(core.StringValue("John"), core.IntValue(1), core.FloatValue(0), core.BoolValue(false), core.BytesValue(nil))
	second := core.NewRecord(core.StringValue("John"), core.IntValue(2), core.FloatValue(0), core.BoolValue(false), core.BytesValue(nil))
	require.NoError(t, db.Insert(ctx, "Person", first))
	require.NoError(t, db.Insert(ctx, "Person", second))

	got, ok, err := db.GetRecordByPK(ctx, "Person", tuple.Str("John"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Columns[1].IntVal)

	// The first row payload (row id 0) is still stored, though no index
	// entry points at it any more.
	var orphanFound bool
	err = db.engine.Transact(ctx, func(tx kv.Tx) error {
		_, found, err := tx.Get(ctx, db.space.RowKey("Person", 0))
		orphanFound = found
		return err
	})
	require.NoError(t, err)
	assert.True(t, orphanFound)

	meta, ok, err := db.GetTableMetadata(ctx, "Person")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), meta.MaxRowID)
}

func TestGetRecordByPKMissingReturnsNotOK(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	require.NoError(t, db.CreateTable(ctx, personTable()))

	_, ok, err := db.GetRecordByPK(ctx, "Person", tuple.Str("Nobody"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddIndexOnUnknownTableFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()

	err := db.AddIndex(ctx, "Ghost", core.Index{Name: "idx", Fields: []string{"x"}})
	require.Error(t, err)
	assert.True(t, kverr.IsKind(err, kverr.TableNotFound))
}
