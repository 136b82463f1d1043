// Package domain contains core types for society configuration.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CalculationMode selects how the monthly maintenance charge is derived.
type CalculationMode string

const (
	// CalculationFixed bills a flat amount per unit.
	CalculationFixed CalculationMode = "FIXED"
	// CalculationPerSQFT bills rate * unit area.
	CalculationPerSQFT CalculationMode = "PER_SQFT"
)

// DueDayEndOfMonth marks bills as due on the last day of the billing month.
const DueDayEndOfMonth = 0

// Organization represents a residential society, the top-level billing scope.
// Exactly one of {rate, fixed amount} is authoritative per CalculateMaintenanceBy;
// the other may still be stored but is ignored at computation time.
type Organization struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Slug       string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Address    string       `gorm:"type:text" json:"address"`
	City       string       `gorm:"type:text" json:"city"`
	State      string       `gorm:"type:text" json:"state"`
	PostalCode string       `gorm:"type:text;column:postal_code" json:"postal_code"`
	TotalUnits int          `gorm:"not null;default:0" json:"total_units"`

	CalculateMaintenanceBy CalculationMode  `gorm:"type:text;not null;default:'FIXED';column:calculate_maintenance_by" json:"calculate_maintenance_by"`
	MaintenanceAmount      *decimal.Decimal `gorm:"type:numeric" json:"maintenance_amount"`
	MaintenanceRate        *decimal.Decimal `gorm:"type:numeric" json:"maintenance_rate"`
	TenantMaintAmount      *decimal.Decimal `gorm:"type:numeric;column:tenant_maintenance_amount" json:"tenant_maintenance_amount"`
	TenantMaintRate        *decimal.Decimal `gorm:"type:numeric;column:tenant_maintenance_rate" json:"tenant_maintenance_rate"`
	PenaltyAmount          *decimal.Decimal `gorm:"type:numeric" json:"penalty_amount"`
	PenaltyRate            *decimal.Decimal `gorm:"type:numeric" json:"penalty_rate"`

	// DueDay is the day of month bills fall due; DueDayEndOfMonth means the
	// last day, and values past a short month clamp to its final day.
	DueDay int `gorm:"not null;default:0;column:due_day" json:"due_day"`

	Extras datatypes.JSONSlice[ExtraItem] `gorm:"column:extras" json:"extras"`

	Metadata  datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// ExtraItem is a named recurring additional charge beyond base maintenance.
// ID is a client-generated token; Month/Year scope the item to one period
// when set.
type ExtraItem struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Month  *int            `json:"month,omitempty"`
	Year   *int            `json:"year,omitempty"`
}
