package database

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Statements splits the embedded schema into individual statements.
func Statements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate creates any missing tables.  Every statement is idempotent,
// so running it against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	stmts := Statements()
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(stmts), nil
}
