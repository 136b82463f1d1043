package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/internal/clock"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	"github.com/societyos/upkeep/pkg/db"
	"github.com/societyos/upkeep/pkg/db/option"
	"github.com/societyos/upkeep/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	unitrepo repository.Repository[unitdomain.Unit]
}

func NewService(p ServiceParam) unitdomain.Service {
	return &Service{
		log:      p.Log.Named("unit.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		unitrepo: repository.ProvideStore[unitdomain.Unit](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req unitdomain.CreateUnitRequest) (*unitdomain.Unit, error) {
	if req.OrgID == 0 {
		return nil, unitdomain.ErrInvalidOrg
	}
	number := strings.TrimSpace(req.UnitNumber)
	if number == "" {
		return nil, unitdomain.ErrInvalidNumber
	}
	if req.Area.IsNegative() {
		return nil, unitdomain.ErrInvalidArea
	}

	now := s.clock.Now()
	unit := &unitdomain.Unit{
		ID:         s.genID.Generate(),
		OrgID:      req.OrgID,
		UnitNumber: number,
		Area:       req.Area,
		IsTenant:   req.IsTenant,
		ResidentID: req.ResidentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.unitrepo.Create(ctx, unit); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, unitdomain.ErrUnitExists
		}
		return nil, err
	}
	return unit, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*unitdomain.Unit, error) {
	unitID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, unitdomain.ErrInvalidUnit
	}

	unit, err := s.unitrepo.FindOne(ctx, &unitdomain.Unit{ID: unitID})
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, unitdomain.ErrUnitNotFound
	}
	return unit, nil
}

func (s *Service) List(ctx context.Context, req unitdomain.ListUnitsRequest) ([]unitdomain.Unit, error) {
	filter := &unitdomain.Unit{OrgID: req.OrgID}
	opts := req.Params.Options(
		map[string]bool{"unit_number": true, "area": true, "created_at": true},
		"unit_number",
	)
	if req.IsTenant != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "is_tenant",
			Operator: option.EQ,
			Value:    *req.IsTenant,
		}))
	}

	items, err := s.unitrepo.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]unitdomain.Unit, error) {
	items, err := s.unitrepo.Find(ctx, &unitdomain.Unit{OrgID: orgID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"unit_number": true},
			Field: "unit_number",
		}),
	)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) Update(ctx context.Context, id string, req unitdomain.UpdateUnitRequest) (*unitdomain.Unit, error) {
	unit, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.UnitNumber != nil {
		number := strings.TrimSpace(*req.UnitNumber)
		if number == "" {
			return nil, unitdomain.ErrInvalidNumber
		}
		unit.UnitNumber = number
	}
	if req.Area != nil {
		if req.Area.IsNegative() {
			return nil, unitdomain.ErrInvalidArea
		}
		unit.Area = *req.Area
	}
	if req.IsTenant != nil {
		unit.IsTenant = *req.IsTenant
	}
	unit.UpdatedAt = s.clock.Now()

	if err := s.unitrepo.Update(ctx, unit.ID.String(), unit); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, unitdomain.ErrUnitExists
		}
		return nil, err
	}
	return unit, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	unit, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unitrepo.Delete(ctx, unit.ID.String())
}

func (s *Service) AssignResident(ctx context.Context, id string, residentID snowflake.ID) (*unitdomain.Unit, error) {
	unit, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if residentID == 0 {
		return nil, unitdomain.ErrInvalidSetting
	}

	unit.ResidentID = &residentID
	unit.UpdatedAt = s.clock.Now()
	if err := s.unitrepo.Update(ctx, unit.ID.String(), unit); err != nil {
		return nil, err
	}

	s.log.Info("resident assigned",
		zap.String("unit_id", unit.ID.String()),
		zap.String("resident_id", residentID.String()),
	)
	return unit, nil
}

func collect(items []*unitdomain.Unit) []unitdomain.Unit {
	units := make([]unitdomain.Unit, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		units = append(units, *item)
	}
	return units
}
