package ledger

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func (l *Ledger) migrate() error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("ledger: set goose dialect: %w", err)
	}
	if err := goose.Up(l.db, "migrations"); err != nil {
		return fmt.Errorf("ledger: run migrations: %w", err)
	}
	return nil
}
