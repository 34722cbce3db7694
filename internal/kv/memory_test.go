package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEngineSetGetDelete(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()

	err := e.Transact(ctx, func(tx Tx) error {
		return tx.Set(ctx, []byte("a"), []byte("1"))
	})
	require.NoError(t, err)

	err = e.Transact(ctx, func(tx Tx) error {
		v, ok, err := tx.Get(ctx, []byte("a"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("1"), v)
		return nil
	})
	require.NoError(t, err)

	err = e.Transact(ctx, func(tx Tx) error {
		return tx.Delete(ctx, []byte("a"))
	})
	require.NoError(t, err)

	err = e.Transact(ctx, func(tx Tx) error {
		_, ok, err := tx.Get(ctx, []byte("a"))
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryEngineScanReturnsKeysInOrder(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()

	keys := []string{"c", "a", "b"}
	err := e.Transact(ctx, func(tx Tx) error {
		for _, k := range keys {
			if err := tx.Set(ctx, []byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got []string
	err = e.Transact(ctx, func(tx Tx) error {
		kvs, err := tx.Scan(ctx, []byte("a"), nil)
		if err != nil {
			return err
		}
		for _, kv := range kvs {
			got = append(got, string(kv.Key))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMemoryEngineFullScanPaginatesPastMaxScanSize(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()

	err := e.Transact(ctx, func(tx Tx) error {
		for i := 0; i < MaxScanSize*2+3; i++ {
			key := []byte{byte(i / 256), byte(i % 256)}
			if err := tx.Set(ctx, key, key); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	count := 0
	for _, err := range e.FullScan(ctx, []byte{0, 0}, nil) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, MaxScanSize*2+3, count)
}

func TestTransactPropagatesDomainErrorUnretried(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()
	sentinel := errors.New("domain failure")

	calls := 0
	err := e.Transact(ctx, func(tx Tx) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.False(t, IsRetryable(err))
}

func TestMarkRetryableIsRetryable(t *testing.T) {
	err := MarkRetryable(errors.New("deadlock"))
	assert.True(t, IsRetryable(err))
}
