package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"relstore/internal/tuple"
)

func TestKeysAreDisjointAcrossTables(t *testing.T) {
	s := NewSubspace([]byte("root"))

	assert.NotEqual(t, s.TableKey("Person"), s.TableKey("Pet"))
	assert.NotEqual(t, s.RowKey("Person", 1), s.RowKey("Pet", 1))
	assert.NotEqual(t,
		s.PrimaryKeyKey("Person", tuple.Str("John")),
		s.PrimaryKeyKey("Pet", tuple.Str("John")),
	)
}

func TestKeysAreDisjointAcrossRowIDs(t *testing.T) {
	s := NewSubspace([]byte("root"))
	assert.NotEqual(t, s.RowKey("Person", 1), s.RowKey("Person", 2))
}

func TestKeysAreDisjointAcrossPrimaryKeyTuples(t *testing.T) {
	s := NewSubspace([]byte("root"))
	assert.NotEqual(t,
		s.PrimaryKeyKey("Person", tuple.Str("John")),
		s.PrimaryKeyKey("Person", tuple.Str("Jane")),
	)
}

func TestKeysAreDisjointAcrossPrefixTags(t *testing.T) {
	s := NewSubspace([]byte("root"))
	keys := [][]byte{
		s.TableKey("Person"),
		s.TableMetaKey("Person"),
		s.RowKey("Person", 0),
		s.PrimaryKeyKey("Person"),
		s.IndexKey("Person"),
	}
	for i := range keys {
		for j := range keys {
			if i == j {
				continue
			}
			assert.NotEqual(t, keys[i], keys[j], "keys %d and %d collide", i, j)
		}
	}
}

func TestIndexKeyOmitsIndexName(t *testing.T) {
	s := NewSubspace([]byte("root"))
	// Two distinct indexes on the same table producing the same value
	// tuple address the same key; this mirrors spec.md §4.1 exactly.
	a := s.IndexKey("Person", tuple.Int(30))
	b := s.IndexKey("Person", tuple.Int(30))
	assert.Equal(t, a, b)
}

func TestRowPrefixIsPrefixOfRowKey(t *testing.T) {
	s := NewSubspace([]byte("root"))
	prefix := s.RowPrefix("Person")
	key := s.RowKey("Person", 42)
	assert.True(t, len(key) > len(prefix))
	assert.Equal(t, prefix, key[:len(prefix)])
}

func TestDifferentSubspacesAreDisjoint(t *testing.T) {
	a := NewSubspace([]byte("tenant-a"))
	b := NewSubspace([]byte("tenant-b"))
	assert.NotEqual(t, a.TableKey("Person"), b.TableKey("Person"))
}
