package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/pkg/query"
)

type Service interface {
	Create(ctx context.Context, req CreateUnitRequest) (*Unit, error)
	GetByID(ctx context.Context, id string) (*Unit, error)
	List(ctx context.Context, req ListUnitsRequest) ([]Unit, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]Unit, error)
	Update(ctx context.Context, id string, req UpdateUnitRequest) (*Unit, error)
	Delete(ctx context.Context, id string) error
	AssignResident(ctx context.Context, id string, residentID snowflake.ID) (*Unit, error)
}

type CreateUnitRequest struct {
	OrgID      snowflake.ID    `json:"organization_id"`
	UnitNumber string          `json:"unit_number"`
	Area       decimal.Decimal `json:"area"`
	IsTenant   bool            `json:"is_tenant"`
	ResidentID *snowflake.ID   `json:"resident_id"`
}

type UpdateUnitRequest struct {
	UnitNumber *string          `json:"unit_number"`
	Area       *decimal.Decimal `json:"area"`
	IsTenant   *bool            `json:"is_tenant"`
}

type ListUnitsRequest struct {
	OrgID    snowflake.ID
	IsTenant *bool
	Params   query.Params
}

var (
	ErrInvalidUnit    = errors.New("invalid_unit")
	ErrInvalidArea    = errors.New("invalid_area")
	ErrUnitExists     = errors.New("unit_exists")
	ErrUnitNotFound   = errors.New("unit_not_found")
	ErrInvalidOrg     = errors.New("invalid_organization")
	ErrInvalidNumber  = errors.New("invalid_unit_number")
	ErrInvalidSetting = errors.New("invalid_unit_setting")
)
