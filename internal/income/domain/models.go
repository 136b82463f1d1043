// Package domain contains core types for society income tracking.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FileRef points at an uploaded document attached to a record.
type FileRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Income is money the society received outside of maintenance bills,
// such as hall rentals or interest.
type Income struct {
	ID          snowflake.ID                 `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID                 `gorm:"column:org_id;not null;index" json:"organization_id"`
	Title       string                       `gorm:"type:text;not null" json:"title"`
	Description string                       `gorm:"type:text" json:"description,omitempty"`
	Source      string                       `gorm:"type:text" json:"source,omitempty"`
	Amount      decimal.Decimal              `gorm:"type:numeric;not null" json:"amount"`
	Date        time.Time                    `gorm:"column:received_at;not null;index" json:"date"`
	Files       datatypes.JSONSlice[FileRef] `gorm:"not null;default:'[]'" json:"files"`
	CreatedBy   snowflake.ID                 `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Income) TableName() string { return "incomes" }
