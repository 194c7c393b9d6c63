package loader

import (
	"context"
	"database/sql"
	"os"

	sf "github.com/snowflakedb/gosnowflake"

	catalogpkg "github.com/flowcraft-dev/flowcraft/pkg/catalog"
	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// loadSQL resolves entry's credentials, opens a connection scoped to this
// call, reads and executes the query text at entry.SQLPath, and returns
// the result set. The connection is closed on every exit path, including
// error.
func loadSQL(ctx context.Context, entry *catalogpkg.SQLEntry, credentialsPath string) (Table, error) {
	if entry.DatabaseKind != "Snowflake" {
		return Table{}, &errs.UnsupportedDatabase{Kind: entry.DatabaseKind}
	}

	store, err := catalogpkg.LoadCredentials(credentialsPath)
	if err != nil {
		return Table{}, err
	}
	creds, err := store.Lookup(entry.CredentialsKey)
	if err != nil {
		return Table{}, err
	}

	queryBytes, err := os.ReadFile(entry.SQLPath)
	if err != nil {
		return Table{}, &errs.SqlFileMissing{Path: entry.SQLPath}
	}

	dsn, err := sf.DSN(&sf.Config{
		Account:   creds.Server,
		User:      creds.User,
		Password:  creds.Password,
		Database:  creds.Database,
		Schema:    creds.Schema,
		Warehouse: creds.Warehouse,
	})
	if err != nil {
		return Table{}, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return Table{}, err
	}
	defer db.Close()

	return runQuery(ctx, db, string(queryBytes))
}

// runQuery executes query against an already-open db and scans the result
// set into a Table. Split out from loadSQL so it can be exercised against
// a go-sqlmock *sql.DB without a live Snowflake connection.
func runQuery(ctx context.Context, db *sql.DB, query string) (Table, error) {
	if err := db.PingContext(ctx); err != nil {
		return Table{}, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return Table{}, err
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return Table{}, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, err
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return Table{}, err
	}

	return Table{Columns: columns, Rows: out}, nil
}
