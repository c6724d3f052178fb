// Package sqlitetest provides an in-memory, fully migrated store and a seeded
// jurisdiction for tests of the repository, service and handler packages.
package sqlitetest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"civicreport/models"
	"civicreport/repository"
	"civicreport/schema"
)

// DSN opens a private in-memory database per connection; the pool is capped at one connection
const DSN = ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// Open returns a migrated in-memory store closed at the end of the test
func Open(t *testing.T) *repository.Store {
	t.Helper()
	db, err := repository.Open(schema.DialectSQLite, DSN, 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, schema.Migrate(db, schema.DialectSQLite))
	return repository.NewStore(db)
}

// Seed is a small jurisdiction: three active departments with officers on every level
// and one inactive department
type Seed struct {
	Roads    *models.Department
	Water    *models.Department
	Health   *models.Department
	Closed   *models.Department
	Officers map[string]*models.Officer
}

// seedOfficers lists key, user id, department key, level, designation and active flag
var seedOfficers = []struct {
	key         string
	userID      int64
	dept        string
	level       int
	designation string
	active      bool
}{
	{"roads_field", 101, "roads", models.LevelField, "Junior Engineer", true},
	{"roads_nodal", 102, "roads", models.LevelNodal, "Assistant Engineer", true},
	{"roads_head", 103, "roads", models.LevelHead, "Executive Engineer", true},
	{"roads_field_2", 104, "roads", models.LevelField, "Junior Engineer", true},
	{"roads_nodal_inactive", 105, "roads", models.LevelNodal, "Assistant Engineer", false},
	{"water_field", 201, "water", models.LevelField, "Line Inspector", true},
	{"water_nodal", 202, "water", models.LevelNodal, "Section Officer", true},
	{"health_head", 301, "health", models.LevelHead, "Chief Medical Officer", true},
	{"closed_head", 401, "closed", models.LevelHead, "Director", true},
}

// SeedJurisdiction inserts departments and officers
func SeedJurisdiction(t *testing.T, store *repository.Store) *Seed {
	t.Helper()
	ctx := context.Background()

	newDept := func(name, code string, level int, budget int64, active bool) *models.Department {
		d := &models.Department{
			Name:           name,
			Code:           code,
			HierarchyLevel: level,
			IsActive:       active,
		}
		if budget > 0 {
			d.MaxBudget = decimal.NewNullDecimal(decimal.NewFromInt(budget))
		}
		require.NoError(t, store.CreateDepartment(ctx, d))
		return d
	}

	s := &Seed{
		Roads:    newDept("Public Works", "PWD", models.HierarchyVillage, 25000, true),
		Water:    newDept("Water Supply", "WSD", models.HierarchyBlock, 500000, true),
		Health:   newDept("Health", "HLT", models.HierarchyDistrict, 0, true),
		Closed:   newDept("Archived Schemes", "ARC", models.HierarchyDistrict, 0, false),
		Officers: make(map[string]*models.Officer),
	}
	depts := map[string]*models.Department{"roads": s.Roads, "water": s.Water, "health": s.Health, "closed": s.Closed}

	for _, so := range seedOfficers {
		o := &models.Officer{
			UserID:          so.userID,
			DepartmentID:    depts[so.dept].DepartmentID,
			Name:            so.key,
			Phone:           sql.NullString{String: fmt.Sprintf("98765%05d", so.userID), Valid: true},
			Designation:     so.designation,
			JurisdictionID:  "JUR-1",
			EscalationLevel: so.level,
			IsActive:        so.active,
		}
		require.NoError(t, store.CreateOfficer(ctx, o))
		s.Officers[so.key] = o
	}
	return s
}

// Officer returns a seeded officer by key
func (s *Seed) Officer(t *testing.T, key string) *models.Officer {
	t.Helper()
	o, ok := s.Officers[key]
	require.True(t, ok, "unknown seeded officer %q", key)
	return o
}

// NewIncident inserts an open incident reported at createdAt
func NewIncident(t *testing.T, store *repository.Store, category string, severity int, createdAt time.Time) *models.Incident {
	t.Helper()
	inc := &models.Incident{
		Title:       "Reported " + category + " issue",
		Description: "Citizen report",
		CategoryID:  category,
		Severity:    severity,
		CreatedAt:   createdAt,
	}
	require.NoError(t, store.CreateIncident(context.Background(), inc))
	return inc
}
