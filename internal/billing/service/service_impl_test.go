package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	"github.com/societyos/upkeep/internal/clock"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	orgrepository "github.com/societyos/upkeep/internal/organization/repository"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	unitservice "github.com/societyos/upkeep/internal/unit/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clk     *clock.FakeClock
	orgRepo orgdomain.Repository
	unitSvc unitdomain.Service
	billSvc billingdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&unitdomain.Unit{},
		&billingdomain.MaintenanceBill{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	orgRepo := orgrepository.NewRepository(db)
	unitSvc := unitservice.NewService(unitservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
	})
	billSvc := NewService(ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		OrgRepo: orgRepo, UnitSvc: unitSvc,
	})

	return &fixture{
		db:      db,
		node:    node,
		clk:     clk,
		orgRepo: orgRepo,
		unitSvc: unitSvc,
		billSvc: billSvc,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (f *fixture) seedOrg(t *testing.T) *orgdomain.Organization {
	t.Helper()
	org := &orgdomain.Organization{
		ID:                     f.node.Generate(),
		Name:                   "Green Meadows",
		Slug:                   "green-meadows",
		CalculateMaintenanceBy: orgdomain.CalculationPerSQFT,
		MaintenanceRate:        decPtr("2.5"),
		TenantMaintRate:        decPtr("3"),
		PenaltyRate:            decPtr("0.5"),
		DueDay:                 10,
	}
	require.NoError(t, f.orgRepo.Create(context.Background(), org))
	return org
}

func (f *fixture) seedUnit(t *testing.T, orgID snowflake.ID, number string, area string, tenant bool) *unitdomain.Unit {
	t.Helper()
	unit, err := f.unitSvc.Create(context.Background(), unitdomain.CreateUnitRequest{
		OrgID:      orgID,
		UnitNumber: number,
		Area:       dec(area),
		IsTenant:   tenant,
	})
	require.NoError(t, err)
	return unit
}

func TestGenerateCreatesOneBillPerUnit(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	f.seedUnit(t, org.ID, "A-101", "1000", false)
	f.seedUnit(t, org.ID, "A-102", "800", true)

	period := billingdomain.Period{Month: 3, Year: 2026}
	report, err := f.billSvc.Generate(context.Background(), billingdomain.GenerateRequest{
		OrgID: org.ID, Period: period,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Failed)

	bills, err := f.billSvc.List(context.Background(), billingdomain.ListBillsRequest{OrgID: org.ID})
	require.NoError(t, err)
	require.Len(t, bills, 2)
	for _, b := range bills {
		assert.Equal(t, billingdomain.BillStatusPending, b.Status)
		assert.Equal(t, 10, b.DueDate.Day())
	}
}

func TestGenerateRerunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	f.seedUnit(t, org.ID, "A-101", "1000", false)

	period := billingdomain.Period{Month: 3, Year: 2026}
	req := billingdomain.GenerateRequest{OrgID: org.ID, Period: period}

	first, err := f.billSvc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := f.billSvc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)

	bills, err := f.billSvc.List(context.Background(), billingdomain.ListBillsRequest{OrgID: org.ID})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestGenerateMisconfiguredUnitDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	org := &orgdomain.Organization{
		ID:                     f.node.Generate(),
		Name:                   "Broken Acres",
		Slug:                   "broken-acres",
		CalculateMaintenanceBy: orgdomain.CalculationPerSQFT,
		// Owner rate present, tenant rate missing: tenant units must fail
		// while owner units still bill.
		MaintenanceRate: decPtr("2"),
		PenaltyRate:     decPtr("0.5"),
	}
	require.NoError(t, f.orgRepo.Create(context.Background(), org))
	f.seedUnit(t, org.ID, "B-201", "500", false)
	f.seedUnit(t, org.ID, "B-202", "500", true)

	report, err := f.billSvc.Generate(context.Background(), billingdomain.GenerateRequest{
		OrgID:  org.ID,
		Period: billingdomain.Period{Month: 3, Year: 2026},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, billingdomain.ErrInvalidRateConfig.Error(), report.Failed[0].Reason)
}

func TestUpdateStatusEnforcesMatrix(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	f.seedUnit(t, org.ID, "A-101", "1000", false)

	_, err := f.billSvc.Generate(context.Background(), billingdomain.GenerateRequest{
		OrgID:  org.ID,
		Period: billingdomain.Period{Month: 3, Year: 2026},
	})
	require.NoError(t, err)

	bills, err := f.billSvc.List(context.Background(), billingdomain.ListBillsRequest{OrgID: org.ID})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	id := bills[0].ID.String()

	paid, err := f.billSvc.UpdateStatus(context.Background(), id, billingdomain.BillStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillStatusPaid, paid.Status)
	assert.NotEmpty(t, paid.PaymentRef)
	require.NotNil(t, paid.PaidAt)

	_, err = f.billSvc.UpdateStatus(context.Background(), id, billingdomain.BillStatusCancelled)
	assert.ErrorIs(t, err, billingdomain.ErrInvalidTransition)

	// The store still holds PAID, proving the failed transition was not
	// applied optimistically.
	reloaded, err := f.billSvc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillStatusPaid, reloaded.Status)
}

func TestDuesAcrossOverdueMonths(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	unit := f.seedUnit(t, org.ID, "A-101", "1000", false)

	ctx := context.Background()
	for _, p := range []billingdomain.Period{
		{Month: 1, Year: 2026},
		{Month: 2, Year: 2026},
		{Month: 3, Year: 2026},
	} {
		_, err := f.billSvc.Generate(ctx, billingdomain.GenerateRequest{OrgID: org.ID, Period: p})
		require.NoError(t, err)
	}

	bills, err := f.billSvc.List(ctx, billingdomain.ListBillsRequest{OrgID: org.ID})
	require.NoError(t, err)
	for _, b := range bills {
		if b.BillMonth < 3 {
			_, err := f.billSvc.UpdateStatus(ctx, b.ID.String(), billingdomain.BillStatusOverdue)
			require.NoError(t, err)
		}
	}

	breakdown, err := f.billSvc.Dues(ctx, unit.ID, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)

	require.Len(t, breakdown.Dues, 3)
	// 1000 sqft * 2.5 = 2500 base; two overdue months at 1000 * 0.5 = 500.
	assert.True(t, breakdown.Penalty.Equal(dec("1000")), "penalty %s", breakdown.Penalty)
	assert.True(t, breakdown.TotalDue.Equal(dec("8500")), "total %s", breakdown.TotalDue)
	assert.True(t, breakdown.BaseAmount.Equal(dec("2500")))
}

func TestDuesFrozenAfterRateChange(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	unit := f.seedUnit(t, org.ID, "A-101", "1000", false)

	ctx := context.Background()
	_, err := f.billSvc.Generate(ctx, billingdomain.GenerateRequest{
		OrgID: org.ID, Period: billingdomain.Period{Month: 3, Year: 2026},
	})
	require.NoError(t, err)

	// Double the rate after the bill exists.
	org.MaintenanceRate = decPtr("5")
	require.NoError(t, f.orgRepo.Save(ctx, org))

	breakdown, err := f.billSvc.Dues(ctx, unit.ID, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)
	require.Len(t, breakdown.Dues, 1)
	assert.True(t, breakdown.Dues[0].BaseAmount.Equal(dec("2500")),
		"historical base must stay frozen, got %s", breakdown.Dues[0].BaseAmount)
}

func TestDuesZeroBills(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	unit := f.seedUnit(t, org.ID, "A-101", "1000", false)

	breakdown, err := f.billSvc.Dues(context.Background(), unit.ID, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)
	assert.Empty(t, breakdown.Dues)
	assert.True(t, breakdown.TotalDue.IsZero())
}

func TestMarkOverdueSweep(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t)
	f.seedUnit(t, org.ID, "A-101", "1000", false)

	ctx := context.Background()
	_, err := f.billSvc.Generate(ctx, billingdomain.GenerateRequest{
		OrgID: org.ID, Period: billingdomain.Period{Month: 3, Year: 2026},
	})
	require.NoError(t, err)

	// Still before the due date: nothing to flag.
	flagged, err := f.billSvc.MarkOverdue(ctx, f.clk.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)

	// Past the due date (the 10th): the sweep flags it.
	f.clk.Advance(10 * 24 * time.Hour)
	flagged, err = f.billSvc.MarkOverdue(ctx, f.clk.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	bills, err := f.billSvc.List(ctx, billingdomain.ListBillsRequest{OrgID: org.ID})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, billingdomain.BillStatusOverdue, bills[0].Status)

	// A second sweep is a no-op.
	flagged, err = f.billSvc.MarkOverdue(ctx, f.clk.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}
