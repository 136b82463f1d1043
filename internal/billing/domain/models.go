// Package domain contains core types for maintenance billing.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BillStatus represents maintenance bill lifecycle states.
type BillStatus string

const (
	BillStatusPending   BillStatus = "PENDING"
	BillStatusPaid      BillStatus = "PAID"
	BillStatusOverdue   BillStatus = "OVERDUE"
	BillStatusCancelled BillStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
// Terminal bills never accrue penalties.
func (s BillStatus) Terminal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled
}

// Outstanding reports whether the bill still counts toward dues.
func (s BillStatus) Outstanding() bool {
	return s == BillStatusPending || s == BillStatusOverdue
}

// Period identifies a billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 1970
}

// Compare orders periods chronologically: -1 before, 0 equal, 1 after.
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		if p.Year < other.Year {
			return -1
		}
		return 1
	}
	if p.Month != other.Month {
		if p.Month < other.Month {
			return -1
		}
		return 1
	}
	return 0
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// ExtraCharge is the per-bill snapshot of a configured extra. Snapshots are
// taken at generation time so later configuration edits never rewrite
// historical bills.
type ExtraCharge struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MaintenanceBill is one unit's charge for one billing period. The
// (unit, month, year) key is unique; uniqueness is enforced at generation
// time by the database index, never re-validated downstream.
type MaintenanceBill struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	UnitID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_bills_unit_period,priority:1" json:"unit_id"`
	ResidentID snowflake.ID `gorm:"index" json:"resident_id"`

	// Amount is the base charge frozen at generation time; it is never
	// recomputed from current organization rates.
	Amount    decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	BillMonth int             `gorm:"not null;uniqueIndex:ux_bills_unit_period,priority:2" json:"bill_month"`
	BillYear  int             `gorm:"not null;uniqueIndex:ux_bills_unit_period,priority:3" json:"bill_year"`
	DueDate   time.Time       `gorm:"not null" json:"due_date"`
	Status    BillStatus      `gorm:"type:text;not null;default:'PENDING'" json:"status"`

	Extras     datatypes.JSONSlice[ExtraCharge] `gorm:"column:extras" json:"extras"`
	Penalty    decimal.Decimal                  `gorm:"type:numeric;not null;default:0" json:"penalty"`
	LateFee    decimal.Decimal                  `gorm:"type:numeric;not null;default:0" json:"late_fee"`
	PaymentRef string                           `gorm:"type:text;column:payment_ref" json:"payment_ref,omitempty"`
	PaidAt     *time.Time                       `gorm:"column:paid_at" json:"paid_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MaintenanceBill) TableName() string { return "maintenance_bills" }

// Period returns the bill's billing period.
func (b MaintenanceBill) Period() Period {
	return Period{Month: b.BillMonth, Year: b.BillYear}
}

// DuesLine is one ledger row: a single period's outstanding charge.
type DuesLine struct {
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Status     BillStatus      `json:"status"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Extras     []ExtraCharge   `json:"extras"`
	ExtraTotal decimal.Decimal `json:"extra_total"`
	Penalty    decimal.Decimal `json:"penalty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Breakdown is the per-unit dues ledger covering every outstanding period up
// to the reference period.
type Breakdown struct {
	// BaseAmount is the most recent line's base charge, kept for display;
	// it reflects the latest bill's frozen amount, not the current rate.
	BaseAmount decimal.Decimal `json:"base_amount"`
	Extras     []ExtraCharge   `json:"extras"`
	ExtraTotal decimal.Decimal `json:"extra_total"`
	Penalty    decimal.Decimal `json:"penalty"`
	Dues       []DuesLine      `json:"dues"`
	TotalDue   decimal.Decimal `json:"total_due"`
}
