package dbio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
)

func init() {
	RegisterBackend(MSSQL, func() Backend { return &mssqlBackend{} })
}

// mssqlBackend targets Microsoft SQL Server, the engine's required initial
// target per §6.
type mssqlBackend struct{}

func (b *mssqlBackend) Name() Type { return MSSQL }

func (b *mssqlBackend) Open(ctx context.Context, connectionString string) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening mssql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mssql: %w", err)
	}
	return db, nil
}

func (b *mssqlBackend) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (b *mssqlBackend) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (b *mssqlBackend) BuildSelectPage(req SelectPageRequest) (string, []any) {
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
	query += fmt.Sprintf(" ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		strings.Join(orderBy, ", "), req.Offset, req.Limit)
	return query, nil
}

func (b *mssqlBackend) BuildUpdate(req UpdateRequest) (string, []any) {
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

// ValidateStatement has no embeddable MSSQL SQL parser in the retrieved
// pack, so dry-run validation goes through sql.Stmt preparation instead —
// the "validates the statement via explain/prepare" alternative §4.E
// explicitly allows.
func (b *mssqlBackend) ValidateStatement(db *sql.DB, query string) error {
	stmt, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing generated statement: %w", err)
	}
	return stmt.Close()
}
