// Package kv defines the ordered, transactional key-value engine the
// relational store is built on, and the retry-driver contract spec.md §4.4
// requires: the engine calls a closure one or more times, committing when it
// returns successfully and retrying it on transient storage conflicts while
// letting domain errors (relstore/internal/kverr) escape unretried.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"sort"
)

// MaxScanSize bounds the number of key-value pairs a single Scan call
// returns, per spec.md §4.5.
const MaxScanSize = 20

// KeyValue is one key-value pair as returned by a range read.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Tx is the set of operations available inside a single transactional
// closure. A Tx must not be used outside the closure it was handed to.
type Tx interface {
	// Get returns the value stored at key, and ok=false if it is absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// Set stores value at key, overwriting any existing value.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes key, if present.
	Delete(ctx context.Context, key []byte) error

	// Scan returns up to MaxScanSize key-value pairs in [begin, end) in key
	// order, starting at begin.
	Scan(ctx context.Context, begin, end []byte) ([]KeyValue, error)
}

// Engine is the transactional, ordered key-value store the relational layer
// is built on.
type Engine interface {
	// Transact runs fn inside a transaction, retrying it on transient
	// storage conflicts until it succeeds, fn returns a non-retryable
	// error, or ctx is canceled. fn may be called more than once and must
	// not have side effects outside of the Tx it is given.
	Transact(ctx context.Context, fn func(Tx) error) error

	// FullScan lazily iterates every key-value pair in [begin, end),
	// transparently paginating past the MaxScanSize bound with successive
	// transactions, each continuing from just after the last key of the
	// previous page (see spec.md §4.5: append a single 0xFF byte to the
	// last key observed).
	FullScan(ctx context.Context, begin, end []byte) iter.Seq2[KeyValue, error]

	// Close releases resources held by the engine.
	Close() error
}

// IsRetryable reports whether err represents a transient storage conflict
// that a caller (or the engine's own Transact loop) should retry, as opposed
// to a domain or terminal storage error that must propagate unchanged. Only
// an error MarkRetryable was applied to qualifies: classify (internal/kv's
// MySQL engine) applies it exclusively to MySQL deadlock/lock-wait-timeout
// errors, never to a *kverr.Error domain failure, so checking for the marker
// alone is sufficient — no domain error is ever also marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, errRetryable)
}

// errRetryable marks an error as a transient storage conflict. Concrete
// engines wrap their driver-specific transient errors with it.
var errRetryable = errors.New("kv: retryable storage conflict")

// MarkRetryable wraps err so that IsRetryable reports true for it.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err}
}

type retryableError struct{ err error }

func (r retryableError) Error() string { return r.err.Error() }
func (r retryableError) Unwrap() error { return r.err }
func (r retryableError) Is(target error) bool {
	return target == errRetryable
}

// successorKey appends a single 0xFF byte to key, the continuation token
// spec.md §4.5 specifies for resuming a scan strictly after key. 0xFF is not
// a tag byte in internal/tuple, so appending it after a complete packed key
// never yields another key this store produces.
func successorKey(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	out[len(key)] = 0xFF
	return out
}

// sortKeyValues orders a slice of KeyValue by key, the order every Engine
// implementation's Scan must already return but which in-memory
// implementations must establish explicitly.
func sortKeyValues(kvs []KeyValue) {
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0
	})
}

// fullScan is the shared FullScan driver used by every Engine
// implementation: it repeatedly transacts a single bounded Scan and yields
// results until a page comes back short of MaxScanSize.
func fullScan(ctx context.Context, engine Engine, begin, end []byte) iter.Seq2[KeyValue, error] {
	return func(yield func(KeyValue, error) bool) {
		cursor := begin
		for {
			var page []KeyValue
			err := engine.Transact(ctx, func(tx Tx) error {
				p, txErr := tx.Scan(ctx, cursor, end)
				page = p
				return txErr
			})
			if err != nil {
				yield(KeyValue{}, err)
				return
			}
			for _, kv := range page {
				if !yield(kv, nil) {
					return
				}
			}
			if len(page) < MaxScanSize {
				return
			}
			cursor = successorKey(page[len(page)-1].Key)
		}
	}
}
