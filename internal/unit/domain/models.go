// Package domain contains persistence models for billable units.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Unit represents a billable dwelling within an organization.
type Unit struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_units_org_number,priority:1" json:"organization_id"`
	UnitNumber string          `gorm:"type:text;not null;uniqueIndex:ux_units_org_number,priority:2" json:"unit_number"`
	Area       decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"area"`
	IsTenant   bool            `gorm:"not null;default:false" json:"is_tenant"`
	ResidentID *snowflake.ID   `gorm:"index" json:"resident_id"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Unit) TableName() string { return "units" }
