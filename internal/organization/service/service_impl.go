package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/pkg/db"
	"github.com/societyos/upkeep/pkg/query"
	"go.uber.org/zap"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewService(repo domain.Repository, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		repo:  repo,
		genID: genID,
		clock: clk,
		log:   log.Named("organization.service"),
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.TotalUnits < 0 {
		return nil, domain.ErrInvalidOrganization
	}

	now := s.clock.Now()
	org := &domain.Organization{
		ID:                     s.genID.Generate(),
		Name:                   name,
		Slug:                   slug.Make(name),
		Address:                strings.TrimSpace(req.Address),
		City:                   strings.TrimSpace(req.City),
		State:                  strings.TrimSpace(req.State),
		PostalCode:             strings.TrimSpace(req.PostalCode),
		TotalUnits:             req.TotalUnits,
		CalculateMaintenanceBy: domain.CalculationFixed,
		DueDay:                 domain.DueDayEndOfMonth,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Create(ctx, org); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrOrganizationExists
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return org, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	orgID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) List(ctx context.Context, params query.Params) ([]domain.Organization, error) {
	opts := params.Options(
		map[string]bool{"name": true, "created_at": true, "total_units": true},
		"name", "city",
	)

	items, err := s.repo.Find(ctx, &domain.Organization{}, opts...)
	if err != nil {
		return nil, err
	}

	orgs := make([]domain.Organization, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orgs = append(orgs, *item)
	}
	return orgs, nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		org.Name = name
		org.Slug = slug.Make(name)
	}
	if req.Address != nil {
		org.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		org.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		org.State = strings.TrimSpace(*req.State)
	}
	if req.PostalCode != nil {
		org.PostalCode = strings.TrimSpace(*req.PostalCode)
	}
	if req.TotalUnits != nil {
		if *req.TotalUnits < 0 {
			return nil, domain.ErrInvalidOrganization
		}
		org.TotalUnits = *req.TotalUnits
	}
	org.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, org.ID)
}

// UpdateBillingSettings replaces the maintenance-rate configuration. The
// fields the selected mode relies on must be present and non-negative so a
// later generation run cannot hit a half-configured organization.
func (s *service) UpdateBillingSettings(ctx context.Context, id string, req domain.BillingSettingsRequest) (*domain.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.CalculateMaintenanceBy {
	case domain.CalculationFixed:
		if !validAmount(req.MaintenanceAmount) || !validAmount(req.TenantMaintAmount) || !validAmount(req.PenaltyAmount) {
			return nil, domain.ErrIncompleteRateSetup
		}
	case domain.CalculationPerSQFT:
		if !validAmount(req.MaintenanceRate) || !validAmount(req.TenantMaintRate) || !validAmount(req.PenaltyRate) {
			return nil, domain.ErrIncompleteRateSetup
		}
	default:
		return nil, domain.ErrInvalidMode
	}

	if req.DueDay != nil {
		if *req.DueDay < domain.DueDayEndOfMonth || *req.DueDay > 31 {
			return nil, domain.ErrInvalidDueDay
		}
		org.DueDay = *req.DueDay
	}

	org.CalculateMaintenanceBy = req.CalculateMaintenanceBy
	org.MaintenanceAmount = req.MaintenanceAmount
	org.MaintenanceRate = req.MaintenanceRate
	org.TenantMaintAmount = req.TenantMaintAmount
	org.TenantMaintRate = req.TenantMaintRate
	org.PenaltyAmount = req.PenaltyAmount
	org.PenaltyRate = req.PenaltyRate
	org.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, org); err != nil {
		return nil, err
	}

	s.log.Info("billing settings updated",
		zap.String("org_id", org.ID.String()),
		zap.String("mode", string(org.CalculateMaintenanceBy)),
	)
	return org, nil
}

func (s *service) AddExtra(ctx context.Context, id string, extra domain.ExtraItem) (*domain.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	extra.Name = strings.TrimSpace(extra.Name)
	if extra.Name == "" || extra.Amount.IsNegative() {
		return nil, domain.ErrInvalidExtra
	}
	if strings.TrimSpace(extra.ID) == "" {
		extra.ID = uuid.NewString()
	}
	if extra.Month != nil && (*extra.Month < 1 || *extra.Month > 12) {
		return nil, domain.ErrInvalidExtra
	}

	for _, existing := range org.Extras {
		if existing.ID == extra.ID {
			return nil, domain.ErrInvalidExtra
		}
	}

	org.Extras = append(org.Extras, extra)
	org.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) RemoveExtra(ctx context.Context, id string, extraID string) (*domain.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := org.Extras[:0]
	found := false
	for _, item := range org.Extras {
		if item.ID == extraID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, domain.ErrExtraNotFound
	}

	org.Extras = kept
	org.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func validAmount(v *decimal.Decimal) bool {
	return v != nil && !v.IsNegative()
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
