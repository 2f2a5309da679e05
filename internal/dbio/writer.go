package dbio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Writer wraps a Backend and *sql.DB to apply one sub-batch of row updates
// inside a single transaction, the same "begin tx, loop statements, roll
// back the whole batch on first failure, commit" shape as the teacher's
// Applier.applyWithTransaction, generalized from "apply a migration file's
// DDL" to "apply one sub-batch of row UPDATEs" (§4.E).
type Writer struct {
	backend Backend
	db      *sql.DB
}

// NewWriter builds a Writer bound to backend and db.
func NewWriter(backend Backend, db *sql.DB) *Writer {
	return &Writer{backend: backend, db: db}
}

// WriteResult reports how a sub-batch write resolved.
type WriteResult struct {
	Applied  int
	DryRun   bool
	Duration time.Duration
}

// WriteSubBatch applies every UpdateRequest in reqs inside one transaction,
// bounded by commandTimeout. In dry-run mode (§4.E: "when DryRun=true, the
// writer validates the statement via explain/prepare but does not commit"),
// every statement is validated, logged (without its argument values) and
// the transaction is rolled back instead of committed. On any failure the whole sub-batch rolls back — callers are
// expected to log every row in reqs to the Failure Log in that case (§4.F).
func (w *Writer) WriteSubBatch(ctx context.Context, reqs []UpdateRequest, commandTimeout time.Duration, dryRun bool) (WriteResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("beginning sub-batch transaction: %w", err)
	}

	for i, req := range reqs {
		query, args := w.backend.BuildUpdate(req)

		if dryRun {
			if err := w.backend.ValidateStatement(w.db, query); err != nil {
				_ = tx.Rollback()
				return WriteResult{}, fmt.Errorf("dry-run validation failed for row %d of %d in table %q: %w",
					i+1, len(reqs), req.Table, err)
			}
			slog.InfoContext(ctx, "dry-run update not executed", "table", req.Table, "query", query)
			continue
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return WriteResult{}, fmt.Errorf("executing update %d of %d in table %q: %w",
				i+1, len(reqs), req.Table, err)
		}
	}

	if dryRun {
		if err := tx.Rollback(); err != nil {
			return WriteResult{}, fmt.Errorf("rolling back dry-run transaction: %w", err)
		}
		return WriteResult{Applied: len(reqs), DryRun: true, Duration: time.Since(start)}, nil
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("committing sub-batch transaction: %w", err)
	}
	return WriteResult{Applied: len(reqs), Duration: time.Since(start)}, nil
}
