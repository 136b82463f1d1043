package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/pkg/query"
)

type Service interface {
	// Generate creates one PENDING bill per unit for the period. Reruns are
	// idempotent: units that already have a bill for the period are skipped,
	// and a unit that fails (for example a rate misconfiguration) is recorded
	// in the report without aborting the rest of the batch.
	Generate(ctx context.Context, req GenerateRequest) (GenerationReport, error)
	List(ctx context.Context, req ListBillsRequest) ([]MaintenanceBill, error)
	GetByID(ctx context.Context, id string) (MaintenanceBill, error)
	// UpdateStatus applies the transition matrix; the store is updated only
	// after validation succeeds, never optimistically.
	UpdateStatus(ctx context.Context, id string, to BillStatus) (MaintenanceBill, error)
	// Dues builds the outstanding ledger for a unit as of the given period.
	Dues(ctx context.Context, unitID snowflake.ID, asOf Period) (Breakdown, error)
	// MarkOverdue flags pending bills whose due date (plus grace days) has
	// elapsed. Returns the number of bills flagged.
	MarkOverdue(ctx context.Context, now time.Time, graceDays int) (int, error)
}

type GenerateRequest struct {
	OrgID  snowflake.ID `json:"organization_id"`
	Period Period       `json:"period"`
}

// GenerationReport summarizes one generation batch.
type GenerationReport struct {
	OrgID   snowflake.ID      `json:"organization_id"`
	Period  Period            `json:"period"`
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Failed  []GenerationError `json:"failed,omitempty"`
}

type GenerationError struct {
	UnitID snowflake.ID `json:"unit_id"`
	Reason string       `json:"reason"`
}

type ListBillsRequest struct {
	OrgID      snowflake.ID
	UnitID     snowflake.ID
	ResidentID snowflake.ID
	Status     *BillStatus
	BillMonth  *int
	BillYear   *int
	Params     query.Params
}

var (
	ErrBillNotFound      = errors.New("bill_not_found")
	ErrInvalidBill       = errors.New("invalid_bill")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidRateConfig = errors.New("invalid_rate_config")
	ErrNegativeExtra     = errors.New("negative_extra_amount")
	ErrDuplicateBill     = errors.New("duplicate_bill")
)
