package dbio

import (
	"context"
	"database/sql"
	"fmt"
)

// Row is one read row: primary-key values and the enabled column values,
// keyed by column name, exactly as fetched — "the Reader fetches only the
// primary key columns plus the enabled columns; no other data is
// exfiltrated" (§4.E).
type Row struct {
	PrimaryKey map[string]any
	Values     map[string]any
}

// Reader wraps a Backend and *sql.DB to emit pages of rows for one table.
type Reader struct {
	backend Backend
	db      *sql.DB
}

// NewReader builds a Reader bound to backend and db.
func NewReader(backend Backend, db *sql.DB) *Reader {
	return &Reader{backend: backend, db: db}
}

// ReadPage fetches one page of req.Limit rows starting at req.Offset,
// ordered by a stable primary-key ordering, per §4.E.
func (r *Reader) ReadPage(ctx context.Context, req SelectPageRequest) ([]Row, error) {
	query, args := r.backend.BuildSelectPage(req)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading page of %q at offset %d: %w", req.Table, req.Offset, err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names for %q: %w", req.Table, err)
	}

	pkSet := make(map[string]bool, len(req.PrimaryKey))
	for _, pk := range req.PrimaryKey {
		pkSet[pk] = true
	}

	var page []Row
	for rows.Next() {
		scanTargets := make([]any, len(colNames))
		values := make([]any, len(colNames))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scanning row of %q: %w", req.Table, err)
		}

		row := Row{PrimaryKey: make(map[string]any, len(req.PrimaryKey)), Values: make(map[string]any, len(colNames))}
		for i, name := range colNames {
			if pkSet[name] {
				row.PrimaryKey[name] = values[i]
			}
			row.Values[name] = values[i]
		}
		page = append(page, row)
	}
	return page, rows.Err()
}

// CountRows returns the total number of rows matching whereClause, used by
// the Table Worker to seed a fresh checkpoint's totalRows (§4.F).
func (r *Reader) CountRows(ctx context.Context, table, whereClause string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.backend.QuoteIdentifier(table))
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows of %q: %w", table, err)
	}
	return count, nil
}
