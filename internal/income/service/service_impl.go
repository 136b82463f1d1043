package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/internal/clock"
	incomedomain "github.com/societyos/upkeep/internal/income/domain"
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
	repo  repository.Repository[incomedomain.Income]
}

func NewService(p ServiceParam) incomedomain.Service {
	return &Service{
		log:   p.Log.Named("income.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[incomedomain.Income](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req incomedomain.CreateIncomeRequest) (*incomedomain.Income, error) {
	if req.OrgID == 0 {
		return nil, incomedomain.ErrInvalidOrg
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, incomedomain.ErrInvalidTitle
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, incomedomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	income := &incomedomain.Income{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Source:      strings.TrimSpace(req.Source),
		Amount:      req.Amount,
		Date:        date.UTC(),
		Files:       datatypes.NewJSONSlice(req.Files),
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, income); err != nil {
		return nil, err
	}
	return income, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*incomedomain.Income, error) {
	incomeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, incomedomain.ErrInvalidIncome
	}

	income, err := s.repo.FindOne(ctx, &incomedomain.Income{ID: incomeID})
	if err != nil {
		return nil, err
	}
	if income == nil {
		return nil, incomedomain.ErrIncomeNotFound
	}
	return income, nil
}

func (s *Service) List(ctx context.Context, req incomedomain.ListIncomesRequest) ([]incomedomain.Income, error) {
	filter := &incomedomain.Income{OrgID: req.OrgID}
	opts := req.Params.Options(
		map[string]bool{"received_at": true, "amount": true, "created_at": true},
		"title", "description", "source",
	)
	opts = append(opts, monthRange(req.Month, req.Year)...)

	items, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) Update(ctx context.Context, id string, req incomedomain.UpdateIncomeRequest) (*incomedomain.Income, error) {
	income, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, incomedomain.ErrInvalidTitle
		}
		income.Title = title
	}
	if req.Description != nil {
		income.Description = strings.TrimSpace(*req.Description)
	}
	if req.Source != nil {
		income.Source = strings.TrimSpace(*req.Source)
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() || req.Amount.IsZero() {
			return nil, incomedomain.ErrInvalidAmount
		}
		income.Amount = *req.Amount
	}
	if req.Date != nil {
		income.Date = req.Date.UTC()
	}
	if req.Files != nil {
		income.Files = datatypes.NewJSONSlice(req.Files)
	}
	income.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, income.ID.String(), income); err != nil {
		return nil, err
	}
	return income, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	income, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, income.ID.String())
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
		option.ApplyOperator(option.Condition{Field: "received_at", Operator: option.GTE, Value: start}),
		option.ApplyOperator(option.Condition{Field: "received_at", Operator: option.LT, Value: end}),
	}
}

func collect(items []*incomedomain.Income) []incomedomain.Income {
	incomes := make([]incomedomain.Income, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		incomes = append(incomes, *item)
	}
	return incomes
}
