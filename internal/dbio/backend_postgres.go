package dbio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

func init() {
	RegisterBackend(Postgres, func() Backend { return &postgresBackend{} })
}

// postgresBackend targets PostgreSQL, the engine's required pluggability
// target per §6.
type postgresBackend struct{}

func (b *postgresBackend) Name() Type { return Postgres }

func (b *postgresBackend) Open(ctx context.Context, connectionString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

func (b *postgresBackend) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (b *postgresBackend) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (b *postgresBackend) BuildSelectPage(req SelectPageRequest) (string, []any) {
	cols := make([]string, 0, len(req.Columns))
	for _, c := range req.Columns {
		cols = append(cols, b.QuoteIdentifier(c))
	}
	orderBy := make([]string, 0, len(req.PrimaryKey))
	for _, pk := range req.PrimaryKey {
		orderBy = append(orderBy, b.QuoteIdentifier(pk))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), b.QuoteIdentifier(req.Table))
	if req.WhereClause != "" {
		query += " WHERE " + req.WhereClause
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", strings.Join(orderBy, ", "), req.Limit, req.Offset)
	return query, nil
}

func (b *postgresBackend) BuildUpdate(req UpdateRequest) (string, []any) {
	n := 0
	nextPlaceholder := func() string {
		n++
		return b.Placeholder(n)
	}

	sets := make([]string, 0, len(req.SetColumns))
	args := make([]any, 0, len(req.SetColumns)+len(req.PKValues))
	for _, col := range req.SetColumns {
		sets = append(sets, fmt.Sprintf("%s = %s", b.QuoteIdentifier(col), nextPlaceholder()))
	}
	args = append(args, req.SetValues...)

	where := make([]string, 0, len(req.PrimaryKey))
	for _, pk := range req.PrimaryKey {
		where = append(where, fmt.Sprintf("%s = %s", b.QuoteIdentifier(pk), nextPlaceholder()))
	}
	args = append(args, req.PKValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		b.QuoteIdentifier(req.Table), strings.Join(sets, ", "), strings.Join(where, " AND "))
	return query, args
}

// ValidateStatement has no embeddable Postgres SQL parser in the retrieved
// pack, so dry-run validation goes through sql.Stmt preparation instead, as
// for mssqlBackend.
func (b *postgresBackend) ValidateStatement(db *sql.DB, query string) error {
	stmt, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing generated statement: %w", err)
	}
	return stmt.Close()
}
