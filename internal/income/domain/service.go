package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/pkg/query"
)

var (
	ErrIncomeNotFound = errors.New("income not found")
	ErrInvalidIncome  = errors.New("invalid income")
	ErrInvalidTitle   = errors.New("invalid title")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidOrg     = errors.New("invalid organization")
)

type Service interface {
	Create(ctx context.Context, req CreateIncomeRequest) (*Income, error)
	GetByID(ctx context.Context, id string) (*Income, error)
	List(ctx context.Context, req ListIncomesRequest) ([]Income, error)
	Update(ctx context.Context, id string, req UpdateIncomeRequest) (*Income, error)
	Delete(ctx context.Context, id string) error
}

type CreateIncomeRequest struct {
	OrgID       snowflake.ID    `json:"organization_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Files       []FileRef       `json:"files"`
	CreatedBy   snowflake.ID    `json:"-"`
}

type UpdateIncomeRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Source      *string          `json:"source"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
	Files       []FileRef        `json:"files"`
}

type ListIncomesRequest struct {
	OrgID  snowflake.ID
	Month  *int
	Year   *int
	Params query.Params
}
