package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/pkg/query"
)

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, params query.Params) ([]Organization, error)
	Update(ctx context.Context, id string, req UpdateOrganizationRequest) (*Organization, error)
	Delete(ctx context.Context, id string) error
	UpdateBillingSettings(ctx context.Context, id string, req BillingSettingsRequest) (*Organization, error)
	AddExtra(ctx context.Context, id string, extra ExtraItem) (*Organization, error)
	RemoveExtra(ctx context.Context, id string, extraID string) (*Organization, error)
}

type CreateOrganizationRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	TotalUnits int    `json:"total_units"`
}

type UpdateOrganizationRequest struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	TotalUnits *int    `json:"total_units"`
}

// BillingSettingsRequest replaces the organization's maintenance-rate
// configuration. The fields required by the selected mode must be present
// and non-negative; the others may be omitted.
type BillingSettingsRequest struct {
	CalculateMaintenanceBy CalculationMode  `json:"calculate_maintenance_by"`
	MaintenanceAmount      *decimal.Decimal `json:"maintenance_amount"`
	MaintenanceRate        *decimal.Decimal `json:"maintenance_rate"`
	TenantMaintAmount      *decimal.Decimal `json:"tenant_maintenance_amount"`
	TenantMaintRate        *decimal.Decimal `json:"tenant_maintenance_rate"`
	PenaltyAmount          *decimal.Decimal `json:"penalty_amount"`
	PenaltyRate            *decimal.Decimal `json:"penalty_rate"`
	DueDay                 *int             `json:"due_day"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrOrganizationExists  = errors.New("organization_exists")
	ErrNotFound            = errors.New("organization_not_found")
	ErrInvalidMode         = errors.New("invalid_calculation_mode")
	ErrInvalidDueDay       = errors.New("invalid_due_day")
	ErrIncompleteRateSetup = errors.New("incomplete_rate_setup")
	ErrInvalidExtra        = errors.New("invalid_extra")
	ErrExtraNotFound       = errors.New("extra_not_found")
)
