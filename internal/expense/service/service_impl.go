package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/internal/clock"
	expensedomain "github.com/societyos/upkeep/internal/expense/domain"
	"github.com/societyos/upkeep/pkg/db/option"
	"github.com/societyos/upkeep/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[expensedomain.Expense]
}

func NewService(p ServiceParam) expensedomain.Service {
	return &Service{
		log:   p.Log.Named("expense.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[expensedomain.Expense](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req expensedomain.CreateExpenseRequest) (*expensedomain.Expense, error) {
	if req.OrgID == 0 {
		return nil, expensedomain.ErrInvalidOrg
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, expensedomain.ErrInvalidTitle
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, expensedomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	expense := &expensedomain.Expense{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Date:        date.UTC(),
		Files:       datatypes.NewJSONSlice(req.Files),
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*expensedomain.Expense, error) {
	expenseID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, expensedomain.ErrInvalidExpense
	}

	expense, err := s.repo.FindOne(ctx, &expensedomain.Expense{ID: expenseID})
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, expensedomain.ErrExpenseNotFound
	}
	return expense, nil
}

func (s *Service) List(ctx context.Context, req expensedomain.ListExpensesRequest) ([]expensedomain.Expense, error) {
	filter := &expensedomain.Expense{OrgID: req.OrgID}
	opts := req.Params.Options(
		map[string]bool{"spent_at": true, "amount": true, "created_at": true},
		"title", "description", "category",
	)
	opts = append(opts, monthRange(req.Month, req.Year)...)

	items, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) Update(ctx context.Context, id string, req expensedomain.UpdateExpenseRequest) (*expensedomain.Expense, error) {
	expense, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, expensedomain.ErrInvalidTitle
		}
		expense.Title = title
	}
	if req.Description != nil {
		expense.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		expense.Category = strings.TrimSpace(*req.Category)
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() || req.Amount.IsZero() {
			return nil, expensedomain.ErrInvalidAmount
		}
		expense.Amount = *req.Amount
	}
	if req.Date != nil {
		expense.Date = req.Date.UTC()
	}
	if req.Files != nil {
		expense.Files = datatypes.NewJSONSlice(req.Files)
	}
	expense.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, expense.ID.String(), expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	expense, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, expense.ID.String())
}

// monthRange narrows results to a calendar month, or a whole year when
// only the year is given.
func monthRange(month, year *int) []option.QueryOption {
	if year == nil {
		return nil
	}
	start := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	if month != nil && *month >= 1 && *month <= 12 {
		start = time.Date(*year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}
	return []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "spent_at", Operator: option.GTE, Value: start}),
		option.ApplyOperator(option.Condition{Field: "spent_at", Operator: option.LT, Value: end}),
	}
}

func collect(items []*expensedomain.Expense) []expensedomain.Expense {
	expenses := make([]expensedomain.Expense, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		expenses = append(expenses, *item)
	}
	return expenses
}
