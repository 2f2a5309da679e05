package dbio

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
	db        *sql.DB
}

// TestMySQLBackendIntegration exercises the mysql Backend end to end against
// a real container, grounded directly on the teacher's
// internal/apply/apply_connector_test.go setup pattern, generalized from
// "connect and apply a migration" to "page through rows and write an
// update sub-batch."
func TestMySQLBackendIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQLBackend(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, `CREATE TABLE customers (
		id INT PRIMARY KEY,
		email VARCHAR(255),
		first_name VARCHAR(255)
	)`)
	require.NoError(t, err)

	_, err = tc.db.ExecContext(ctx,
		`INSERT INTO customers (id, email, first_name) VALUES (1, 'a@example.com', 'Ada'), (2, 'b@example.com', 'Bob')`)
	require.NoError(t, err)

	backend, err := GetBackend(MySQL)
	require.NoError(t, err)

	reader := NewReader(backend, tc.db)
	count, err := reader.CountRows(ctx, "customers", "")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	page, err := reader.ReadPage(ctx, SelectPageRequest{
		Table:      "customers",
		PrimaryKey: []string{"id"},
		Columns:    []string{"id", "email", "first_name"},
		Offset:     0,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)

	writer := NewWriter(backend, tc.db)
	updates := make([]UpdateRequest, 0, len(page))
	for _, row := range page {
		updates = append(updates, UpdateRequest{
			Table:      "customers",
			PrimaryKey: []string{"id"},
			PKValues:   []any{row.PrimaryKey["id"]},
			SetColumns: []string{"email"},
			SetValues:  []any{"obfuscated@example.com"},
		})
	}

	result, err := writer.WriteSubBatch(ctx, updates, 10*time.Second, false)
	require.NoError(t, err)
	require.Equal(t, len(updates), result.Applied)
	require.False(t, result.DryRun)

	var email string
	require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT email FROM customers WHERE id = 1").Scan(&email))
	require.Equal(t, "obfuscated@example.com", email)
}

// TestMySQLBackendIntegration_DryRun verifies that a dry-run sub-batch
// validates every statement but never commits.
func TestMySQLBackendIntegration_DryRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQLBackend(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, `CREATE TABLE accounts (id INT PRIMARY KEY, email VARCHAR(255))`)
	require.NoError(t, err)
	_, err = tc.db.ExecContext(ctx, `INSERT INTO accounts (id, email) VALUES (1, 'orig@example.com')`)
	require.NoError(t, err)

	backend, err := GetBackend(MySQL)
	require.NoError(t, err)
	writer := NewWriter(backend, tc.db)

	result, err := writer.WriteSubBatch(ctx, []UpdateRequest{
		{Table: "accounts", PrimaryKey: []string{"id"}, PKValues: []any{1}, SetColumns: []string{"email"}, SetValues: []any{"synthetic@example.com"}},
	}, 10*time.Second, true)
	require.NoError(t, err)
	require.True(t, result.DryRun)

	var email string
	require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT email FROM accounts WHERE id = 1").Scan(&email))
	require.Equal(t, "orig@example.com", email)
}

func setupMySQLBackend(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &testMySQLContainer{container: mysqlContainer, dsn: dsn, db: db}
}
