package kv

import (
	"bytes"
	"context"
	"iter"
	"sync"
)

// memoryEngine is an in-process Engine backed by a plain map, used by unit
// tests that exercise store logic without standing up a MySQL container.
// Scan sorts the matching keys on every call.
type memoryEngine struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryEngine returns an Engine suitable for fast, hermetic unit tests.
// It never retries: there is no concurrent writer to conflict with.
func NewMemoryEngine() Engine {
	return &memoryEngine{data: make(map[string][]byte)}
}

func (e *memoryEngine) Transact(ctx context.Context, fn func(Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := make(map[string][]byte, len(e.data))
	for k, v := range e.data {
		snapshot[k] = v
	}
	if err := fn(&memoryTx{engine: e}); err != nil {
		e.data = snapshot
		return err
	}
	return nil
}

func (e *memoryEngine) FullScan(ctx context.Context, begin, end []byte) iter.Seq2[KeyValue, error] {
	return fullScan(ctx, e, begin, end)
}

func (e *memoryEngine) Close() error { return nil }

// memoryTx implements Tx directly against memoryEngine.data. It is only
// ever used while memoryEngine.mu is held by Transact.
type memoryTx struct {
	engine *memoryEngine
}

func (t *memoryTx) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	v, ok := t.engine.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (t *memoryTx) Set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.engine.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(t.engine.data, string(key))
	return nil
}

func (t *memoryTx) Scan(ctx context.Context, begin, end []byte) ([]KeyValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []KeyValue
	for k, v := range t.engine.data {
		kb := []byte(k)
		if bytes.Compare(kb, begin) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		out = append(out, KeyValue{Key: kb, Value: append([]byte(nil), v...)})
	}
	sortKeyValues(out)
	if len(out) > MaxScanSize {
		out = out[:MaxScanSize]
	}
	return out, nil
}
