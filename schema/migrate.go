package schema

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Dialects supported by the store
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// gooseDialect maps a store driver onto its goose dialect and migration directory
func gooseDialect(driver string) (dialect, dir string, err error) {
	switch driver {
	case DialectMySQL:
		return "mysql", "migrations/mysql", nil
	case DialectSQLite:
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies every pending migration for driver. Existing tables and data are never dropped.
func Migrate(db *sql.DB, driver string) error {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	before, err := goose.EnsureDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	after, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if after == before {
		log.Printf("[SCHEMA] Schema up to date at version %d", after)
	} else {
		log.Printf("[SCHEMA] Migrated schema from version %d to %d", before, after)
	}
	return nil
}
