package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/go-sql-driver/mysql"

	"relstore/internal/kverr"
)

// createKVStoreTable is the backing schema for the ordered, transactional
// key-value engine: a single table keyed by the raw packed byte string, the
// concrete substrate every relstore key space is built on top of.
const createKVStoreTable = `
CREATE TABLE IF NOT EXISTS kv_store (
	pkey   VARBINARY(3072) NOT NULL PRIMARY KEY,
	pvalue LONGBLOB NOT NULL
)`

// Retryable MySQL error numbers: deadlock found and lock wait timeout
// exceeded. Every other driver error is treated as terminal.
const (
	errDeadlock        = 1213
	errLockWaitTimeout = 1205
)

// defaultMaxRetries bounds how many times Transact re-runs fn after a
// retryable storage conflict before giving up, when the caller doesn't
// override it via OpenMySQLWithRetries.
const defaultMaxRetries = 10

// mysqlEngine is an Engine backed by MySQL, using SERIALIZABLE transactions
// over a single flat kv_store table to provide the ordering and atomicity
// guarantees the relational layer depends on.
type mysqlEngine struct {
	db         *sql.DB
	maxRetries int
}

// OpenMySQL connects to the database named by dsn and ensures the backing
// kv_store table exists. The returned Engine must be Closed by the caller.
func OpenMySQL(ctx context.Context, dsn string) (Engine, error) {
	return OpenMySQLWithRetries(ctx, dsn, defaultMaxRetries)
}

// OpenMySQLWithRetries is OpenMySQL with an explicit retry budget, for
// callers that load it from configuration.
func OpenMySQLWithRetries(ctx context.Context, dsn string, maxRetries int) (Engine, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("kv: failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("kv: failed to ping database: %w; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, fmt.Errorf("kv: failed to ping database: %w", pingErr)
	}

	if _, err := db.ExecContext(ctx, createKVStoreTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kv: failed to ensure kv_store table: %w", err)
	}

	return &mysqlEngine{db: db, maxRetries: maxRetries}, nil
}

func (e *mysqlEngine) Close() error {
	return e.db.Close()
}

// Transact retries fn while it keeps failing with a transient storage
// conflict (MySQL deadlock or lock-wait-timeout), and returns immediately on
// success or on any non-retryable error, per spec.md §4.4.
func (e *mysqlEngine) Transact(ctx context.Context, fn func(Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return kverr.NewStorageFailure(fmt.Errorf("kv: exceeded %d retries: %w", e.maxRetries, lastErr))
}

func (e *mysqlEngine) attempt(ctx context.Context, fn func(Tx) error) error {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return kverr.NewStorageFailure(fmt.Errorf("kv: failed to begin transaction: %w", err))
	}

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return kverr.NewStorageFailure(fmt.Errorf("kv: transaction failed: %w; rollback also failed: %w", err, rbErr))
		}
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("kv: failed to commit transaction: %w", err))
	}
	return nil
}

func (e *mysqlEngine) FullScan(ctx context.Context, begin, end []byte) iter.Seq2[KeyValue, error] {
	return fullScan(ctx, e, begin, end)
}

// classify wraps err with MarkRetryable when it represents a transient
// MySQL conflict (deadlock or lock-wait-timeout), so the caller's retry
// driver can distinguish it from a terminal domain or I/O error. Any other
// error is terminal: a *kverr.Error domain error (e.g. TableNotFound, raised
// by internal/store against this same Tx) passes through unchanged, and
// everything else — a raw driver/transaction-management error that hasn't
// already been typed — surfaces as kverr.StorageFailure, per spec.md's error
// taxonomy.
func classify(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errDeadlock, errLockWaitTimeout:
			return MarkRetryable(err)
		}
	}
	var kerr *kverr.Error
	if errors.As(err, &kerr) {
		return err
	}
	return kverr.NewStorageFailure(err)
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx, "SELECT pvalue FROM kv_store WHERE pkey = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kverr.NewStorageFailure(fmt.Errorf("kv: get failed: %w", err))
	}
	return value, true, nil
}

func (t *mysqlTx) Set(ctx context.Context, key, value []byte) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO kv_store (pkey, pvalue) VALUES (?, ?) ON DUPLICATE KEY UPDATE pvalue = VALUES(pvalue)",
		key, value)
	if err != nil {
		return kverr.NewStorageFailure(fmt.Errorf("kv: set failed: %w", err))
	}
	return nil
}

func (t *mysqlTx) Delete(ctx context.Context, key []byte) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM kv_store WHERE pkey = ?", key)
	if err != nil {
		return kverr.NewStorageFailure(fmt.Errorf("kv: delete failed: %w", err))
	}
	return nil
}

func (t *mysqlTx) Scan(ctx context.Context, begin, end []byte) ([]KeyValue, error) {
	var rows *sql.Rows
	var err error
	if end == nil {
		rows, err = t.tx.QueryContext(ctx,
			"SELECT pkey, pvalue FROM kv_store WHERE pkey >= ? ORDER BY pkey LIMIT ?",
			begin, MaxScanSize)
	} else {
		rows, err = t.tx.QueryContext(ctx,
			"SELECT pkey, pvalue FROM kv_store WHERE pkey >= ? AND pkey < ? ORDER BY pkey LIMIT ?",
			begin, end, MaxScanSize)
	}
	if err != nil {
		return nil, kverr.NewStorageFailure(fmt.Errorf("kv: scan failed: %w", err))
	}
	defer rows.Close()

	var out []KeyValue
	for rows.Next() {
		var kv KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, kverr.NewStorageFailure(fmt.Errorf("kv: scan row decode failed: %w", err))
		}
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, kverr.NewStorageFailure(fmt.Errorf("kv: scan iteration failed: %w", err))
	}
	return out, nil
}

