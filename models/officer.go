package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Escalation levels: 1 = Field, 2 = Nodal, 3 = Head
const (
	LevelField = 1
	LevelNodal = 2
	LevelHead  = 3
)

// Department hierarchy levels: 1 = Village/Panchayat, 2 = Block, 3 = District
const (
	HierarchyVillage  = 1
	HierarchyBlock    = 2
	HierarchyDistrict = 3
)

// Department represents a government department node in the jurisdiction tree
type Department struct {
	DepartmentID   int64               `db:"department_id" json:"department_id"`
	Name           string              `db:"name" json:"name"`
	Code           string              `db:"code" json:"code"`
	Description    sql.NullString      `db:"description" json:"description"`
	HierarchyLevel int                 `db:"hierarchy_level" json:"hierarchy_level"`
	ParentID       sql.NullInt64       `db:"parent_id" json:"parent_id"`
	MaxBudget      decimal.NullDecimal `db:"max_budget" json:"max_budget"` // NULL = unlimited
	IsActive       bool                `db:"is_active" json:"is_active"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

// Officer represents a government officer; Department is always populated by the store
type Officer struct {
	OfficerID       int64          `db:"officer_id" json:"officer_id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	DepartmentID    int64          `db:"department_id" json:"department_id"`
	Name            string         `db:"name" json:"name"`
	Phone           sql.NullString `db:"phone" json:"phone"`
	Designation     string         `db:"designation" json:"designation"`
	EmployeeID      sql.NullString `db:"employee_id" json:"employee_id"`
	JurisdictionID  string         `db:"jurisdiction_id" json:"jurisdiction_id"`
	EscalationLevel int            `db:"escalation_level" json:"escalation_level"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	Department      Department     `db:"-" json:"department"`
}

// OfficerFilter narrows ListActiveOfficers. Zero values mean "no constraint".
// Only active officers in active departments are ever returned.
type OfficerFilter struct {
	DepartmentIDs       []int64
	ExcludeDepartmentID int64
	EscalationLevel     int
	MinEscalationLevel  int
}
