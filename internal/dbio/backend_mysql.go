package dbio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pingcap/tidb/pkg/parser"
)

func init() {
	RegisterBackend(MySQL, func() Backend { return &mysqlBackend{} })
}

// mysqlBackend targets MySQL/MariaDB, kept primarily so the integration
// test harness (testcontainers-go/modules/mysql) has a real backend to
// drive end to end, per SPEC_FULL.md §11.
type mysqlBackend struct{}

func (b *mysqlBackend) Name() Type { return MySQL }

func (b *mysqlBackend) Open(ctx context.Context, connectionString string) (*sql.DB, error) {
	db, err := sql.Open("mysql", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return db, nil
}

func (b *mysqlBackend) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (b *mysqlBackend) Placeholder(int) string { return "?" }

func (b *mysqlBackend) BuildSelectPage(req SelectPageRequest) (string, []any) {
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

func (b *mysqlBackend) BuildUpdate(req UpdateRequest) (string, []any) {
	sets := make([]string, 0, len(req.SetColumns))
	args := make([]any, 0, len(req.SetColumns)+len(req.PKValues))
	for _, col := range req.SetColumns {
		sets = append(sets, fmt.Sprintf("%s = ?", b.QuoteIdentifier(col)))
	}
	args = append(args, req.SetValues...)

	where := make([]string, 0, len(req.PrimaryKey))
	for _, pk := range req.PrimaryKey {
		where = append(where, fmt.Sprintf("%s = ?", b.QuoteIdentifier(pk)))
	}
	args = append(args, req.PKValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		b.QuoteIdentifier(req.Table), strings.Join(sets, ", "), strings.Join(where, " AND "))
	return query, args
}

// ValidateStatement reparses query with the TiDB SQL parser as a pure
// syntax check before the statement is logged in dry-run mode, per §4.E —
// the same dependency the teacher's internal/apply uses to split a
// migration file into statements, repurposed here to validate one
// generated UPDATE rather than split a whole file.
func (b *mysqlBackend) ValidateStatement(_ *sql.DB, query string) error {
	p := parser.New()
	stmtNodes, _, err := p.Parse(query, "", "")
	if err != nil {
		return fmt.Errorf("parsing generated statement: %w", err)
	}
	if len(stmtNodes) == 0 {
		return fmt.Errorf("generated statement parsed to zero statement nodes")
	}
	return nil
}
