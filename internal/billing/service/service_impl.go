package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/societyos/upkeep/internal/billing/charge"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	"github.com/societyos/upkeep/internal/billing/ledger"
	"github.com/societyos/upkeep/internal/clock"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	"github.com/societyos/upkeep/pkg/db"
	"github.com/societyos/upkeep/pkg/db/option"
	"github.com/societyos/upkeep/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	OrgRepo orgdomain.Repository
	UnitSvc unitdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	billrepo repository.Repository[billingdomain.MaintenanceBill]
	orgRepo  orgdomain.Repository
	unitSvc  unitdomain.Service
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		billrepo: repository.ProvideStore[billingdomain.MaintenanceBill](p.DB),
		orgRepo:  p.OrgRepo,
		unitSvc:  p.UnitSvc,
	}
}

func (s *Service) Generate(ctx context.Context, req billingdomain.GenerateRequest) (billingdomain.GenerationReport, error) {
	report := billingdomain.GenerationReport{OrgID: req.OrgID, Period: req.Period}

	if !req.Period.Valid() {
		return report, billingdomain.ErrInvalidPeriod
	}

	org, err := s.orgRepo.FindByID(ctx, req.OrgID)
	if err != nil {
		return report, err
	}
	if org == nil {
		return report, orgdomain.ErrNotFound
	}

	units, err := s.unitSvc.ListByOrg(ctx, org.ID)
	if err != nil {
		return report, err
	}

	dueDate := billingdomain.DueDateFor(req.Period, org.DueDay)

	for _, unit := range units {
		created, err := s.generateForUnit(ctx, *org, unit, req.Period, dueDate)
		if err != nil {
			// One misconfigured unit must not abort the batch.
			s.log.Warn("bill generation failed for unit",
				zap.String("org_id", org.ID.String()),
				zap.String("unit_id", unit.ID.String()),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, billingdomain.GenerationError{
				UnitID: unit.ID,
				Reason: err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Skipped++
		}
	}

	s.log.Info("bill generation finished",
		zap.String("org_id", org.ID.String()),
		zap.Int("month", req.Period.Month),
		zap.Int("year", req.Period.Year),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *Service) generateForUnit(ctx context.Context, org orgdomain.Organization, unit unitdomain.Unit, period billingdomain.Period, dueDate time.Time) (bool, error) {
	resolved, err := charge.Resolve(org, unit)
	if err != nil {
		return false, err
	}

	extras, err := charge.AggregateExtras(org.Extras, period)
	if err != nil {
		// Negative extras are a configuration mistake; bill the valid
		// remainder rather than blocking the unit.
		s.log.Warn("negative extra amount ignored",
			zap.String("org_id", org.ID.String()),
			zap.Int("month", period.Month),
			zap.Int("year", period.Year),
		)
	}

	var residentID snowflake.ID
	if unit.ResidentID != nil {
		residentID = *unit.ResidentID
	}

	now := s.clock.Now()
	bill := &billingdomain.MaintenanceBill{
		ID:         s.genID.Generate(),
		OrgID:      org.ID,
		UnitID:     unit.ID,
		ResidentID: residentID,
		Amount:     resolved.Base,
		BillMonth:  period.Month,
		BillYear:   period.Year,
		DueDate:    dueDate,
		Status:     billingdomain.BillStatusPending,
		Extras:     datatypes.NewJSONSlice(extras.Extras),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	createErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.billrepo.WithTrx(tx).Create(ctx, bill)
	})
	if createErr != nil {
		if db.IsDuplicateKeyErr(createErr) {
			// Rerun for an already-billed period; idempotent skip.
			return false, nil
		}
		return false, createErr
	}
	return true, nil
}

func (s *Service) List(ctx context.Context, req billingdomain.ListBillsRequest) ([]billingdomain.MaintenanceBill, error) {
	filter := &billingdomain.MaintenanceBill{
		OrgID:      req.OrgID,
		UnitID:     req.UnitID,
		ResidentID: req.ResidentID,
	}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	opts := req.Params.Options(map[string]bool{
		"bill_year":  true,
		"bill_month": true,
		"due_date":   true,
		"amount":     true,
		"created_at": true,
	})
	if req.BillMonth != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "bill_month",
			Operator: option.EQ,
			Value:    *req.BillMonth,
		}))
	}
	if req.BillYear != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "bill_year",
			Operator: option.EQ,
			Value:    *req.BillYear,
		}))
	}

	items, err := s.billrepo.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	bills := make([]billingdomain.MaintenanceBill, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bills = append(bills, *item)
	}
	return bills, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (billingdomain.MaintenanceBill, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return billingdomain.MaintenanceBill{}, billingdomain.ErrInvalidBill
	}

	item, err := s.billrepo.FindOne(ctx, &billingdomain.MaintenanceBill{ID: billID})
	if err != nil {
		return billingdomain.MaintenanceBill{}, err
	}
	if item == nil {
		return billingdomain.MaintenanceBill{}, billingdomain.ErrBillNotFound
	}
	return *item, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to billingdomain.BillStatus) (billingdomain.MaintenanceBill, error) {
	bill, err := s.GetByID(ctx, id)
	if err != nil {
		return billingdomain.MaintenanceBill{}, err
	}

	if err := billingdomain.Transition(bill.Status, to); err != nil {
		return billingdomain.MaintenanceBill{}, err
	}

	now := s.clock.Now()
	updates := map[string]any{
		"status":     to,
		"updated_at": now,
	}
	if to == billingdomain.BillStatusPaid {
		ref := ulid.Make().String()
		updates["payment_ref"] = ref
		updates["paid_at"] = now
		bill.PaymentRef = ref
		bill.PaidAt = &now
	}

	if err := s.billrepo.Update(ctx, bill.ID.String(), updates); err != nil {
		return billingdomain.MaintenanceBill{}, err
	}

	bill.Status = to
	bill.UpdatedAt = now

	s.log.Info("bill status updated",
		zap.String("bill_id", bill.ID.String()),
		zap.String("status", string(to)),
	)
	return bill, nil
}

func (s *Service) Dues(ctx context.Context, unitID snowflake.ID, asOf billingdomain.Period) (billingdomain.Breakdown, error) {
	if !asOf.Valid() {
		return billingdomain.Breakdown{}, billingdomain.ErrInvalidPeriod
	}

	unit, err := s.unitSvc.GetByID(ctx, unitID.String())
	if err != nil {
		return billingdomain.Breakdown{}, err
	}

	org, err := s.orgRepo.FindByID(ctx, unit.OrgID)
	if err != nil {
		return billingdomain.Breakdown{}, err
	}
	if org == nil {
		return billingdomain.Breakdown{}, orgdomain.ErrNotFound
	}

	resolved, err := charge.Resolve(*org, *unit)
	if err != nil {
		return billingdomain.Breakdown{}, err
	}

	items, err := s.billrepo.Find(ctx, &billingdomain.MaintenanceBill{UnitID: unit.ID})
	if err != nil {
		return billingdomain.Breakdown{}, err
	}

	bills := make([]billingdomain.MaintenanceBill, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bills = append(bills, *item)
	}

	return ledger.Build(bills, asOf, resolved.Penalty, s.log), nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time, graceDays int) (int, error) {
	cutoff := now.AddDate(0, 0, -graceDays)

	items, err := s.billrepo.Find(ctx,
		&billingdomain.MaintenanceBill{Status: billingdomain.BillStatusPending},
		option.ApplyOperator(option.Condition{
			Field:    "due_date",
			Operator: option.LT,
			Value:    cutoff,
		}),
	)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, err := s.UpdateStatus(ctx, item.ID.String(), billingdomain.BillStatusOverdue); err != nil {
			s.log.Warn("overdue transition failed",
				zap.String("bill_id", item.ID.String()),
				zap.Error(err),
			)
			continue
		}
		flagged++
	}
	return flagged, nil
}
