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
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidOrg      = errors.New("invalid organization")
)

type Service interface {
	Create(ctx context.Context, req CreateExpenseRequest) (*Expense, error)
	GetByID(ctx context.Context, id string) (*Expense, error)
	List(ctx context.Context, req ListExpensesRequest) ([]Expense, error)
	Update(ctx context.Context, id string, req UpdateExpenseRequest) (*Expense, error)
	Delete(ctx context.Context, id string) error
}

type CreateExpenseRequest struct {
	OrgID       snowflake.ID    `json:"organization_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Files       []FileRef       `json:"files"`
	CreatedBy   snowflake.ID    `json:"-"`
}

type UpdateExpenseRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
	Files       []FileRef        `json:"files"`
}

type ListExpensesRequest struct {
	OrgID  snowflake.ID
	Month  *int
	Year   *int
	Params query.Params
}
