// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/migrations"
)

const (
	txMaxAttempts = 3
	txRetryDelay  = 50 * time.Millisecond
)

// DB is the PostgreSQL implementation of [Database]. Repositories embed it to
// share the pool and the error classifier.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Migrate applies the embedded goose migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Migrate(db.DB)
}

// Close releases the connection pool.
func (db *DB) Close(ctx context.Context) error {
	return db.DB.Close()
}

// inTx runs fn inside a transaction and commits it when fn succeeds. When the
// transaction fails with an error classified as [Retryable] the whole
// transaction is run again, up to txMaxAttempts times.
func (db *DB) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		lastErr = db.runTx(ctx, opts, fn)
		if lastErr == nil {
			return nil
		}
		if db.errorClassificator == nil || db.errorClassificator.Classify(lastErr) != Retryable {
			return lastErr
		}
		if attempt == txMaxAttempts {
			break
		}

		log.Warn().Err(lastErr).
			Str("func", "*DB.inTx").
			Int("attempt", attempt).
			Msg("retrying transaction after transient error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryDelay):
		}
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

func (db *DB) runTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// count runs a COUNT(*) query.
func (db *DB) count(ctx context.Context, query string, args []any) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return total, nil
}

// queryList runs query and scans every row with scan.
func queryList[T any](ctx context.Context, db *DB, query string, args []any, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return scanAll(rows, scan)
}
