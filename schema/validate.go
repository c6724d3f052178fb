// Package schema applies the embedded goose migrations and provides startup validation of required DB columns to prevent schema-code mismatch.
package schema

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns are columns the workflows cannot run without.
// If any are missing, the server should not start.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: "incidents", Column: "current_assignment_id"},
	{Table: "incidents", Column: "version"},
	{Table: "incidents", Column: "coordinating_departments"},
	{Table: "assignments", Column: "is_current"},
	{Table: "incident_priorities", Column: "bonus_score"},
	{Table: "escalation_triggers", Column: "trigger_type"},
}

// ValidateRequiredColumns checks that all required columns exist and lists the missing ones otherwise.
func ValidateRequiredColumns(db *sql.DB, driver string, required []RequiredColumn) error {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(db, driver, rc.Table, rc.Column)
		if err != nil {
			return fmt.Errorf("failed to check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	log.Println("[SCHEMA] Required columns verified")
	return nil
}

func columnExists(db *sql.DB, driver, table, column string) (bool, error) {
	var query string
	switch driver {
	case DialectSQLite:
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	default:
		query = `SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	}
	var count int
	if err := db.QueryRow(query, table, column).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
