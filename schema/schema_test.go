package schema_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"civicreport/schema"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, schema.Migrate(db, schema.DialectSQLite))
	require.NoError(t, schema.Migrate(db, schema.DialectSQLite), "second run is a no-op")
	require.NoError(t, schema.ValidateRequiredColumns(db, schema.DialectSQLite, nil))
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db := openMemory(t)
	assert.Error(t, schema.Migrate(db, "oracle"))
}

func TestValidateRequiredColumns_Missing(t *testing.T) {
	db := openMemory(t)
	_, err := db.Exec(`CREATE TABLE incidents (incident_id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	err = schema.ValidateRequiredColumns(db, schema.DialectSQLite, []schema.RequiredColumn{
		{Table: "incidents", Column: "incident_id"},
		{Table: "incidents", Column: "version"},
		{Table: "assignments", Column: "is_current"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incidents.version, assignments.is_current")
	assert.NotContains(t, err.Error(), "incident_id")
}
