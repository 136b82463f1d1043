package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	billingservice "github.com/societyos/upkeep/internal/billing/service"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
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
	billSvc billingdomain.Service
	unitSvc unitdomain.Service
	sched   *Scheduler
}

func newFixture(t *testing.T, start time.Time) *fixture {
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

	clk := clock.NewFakeClock(start)
	log := zap.NewNop()

	orgRepo := orgrepository.NewRepository(db)
	unitSvc := unitservice.NewService(unitservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
	})
	billSvc := billingservice.NewService(billingservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		OrgRepo: orgRepo, UnitSvc: unitSvc,
	})

	policy, err := config.NewBillingPolicyHolder()
	require.NoError(t, err)

	sched, err := New(Params{
		Log:        log,
		Policy:     policy,
		Clock:      clk,
		BillingSvc: billSvc,
		OrgRepo:    orgRepo,
	})
	require.NoError(t, err)

	return &fixture{
		db:      db,
		node:    node,
		clk:     clk,
		orgRepo: orgRepo,
		billSvc: billSvc,
		unitSvc: unitSvc,
		sched:   sched,
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

func (f *fixture) seedSociety(t *testing.T) *orgdomain.Organization {
	t.Helper()
	org := &orgdomain.Organization{
		ID:                     f.node.Generate(),
		Name:                   "Palm Court",
		Slug:                   "palm-court",
		CalculateMaintenanceBy: orgdomain.CalculationFixed,
		MaintenanceAmount:      decPtr("2000"),
		TenantMaintAmount:      decPtr("2500"),
		PenaltyAmount:          decPtr("200"),
		DueDay:                 10,
	}
	require.NoError(t, f.orgRepo.Create(context.Background(), org))

	_, err := f.unitSvc.Create(context.Background(), unitdomain.CreateUnitRequest{
		OrgID:      org.ID,
		UnitNumber: "A-101",
		Area:       dec("1000"),
	})
	require.NoError(t, err)
	_, err = f.unitSvc.Create(context.Background(), unitdomain.CreateUnitRequest{
		OrgID:      org.ID,
		UnitNumber: "A-102",
		Area:       dec("1200"),
		IsTenant:   true,
	})
	require.NoError(t, err)
	return org
}

func (f *fixture) bills(t *testing.T, orgID snowflake.ID) []billingdomain.MaintenanceBill {
	t.Helper()
	bills, err := f.billSvc.List(context.Background(), billingdomain.ListBillsRequest{OrgID: orgID})
	require.NoError(t, err)
	return bills
}

func TestRunOnceGeneratesCurrentPeriod(t *testing.T) {
	f := newFixture(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	org := f.seedSociety(t)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	bills := f.bills(t, org.ID)
	require.Len(t, bills, 2)
	for _, bill := range bills {
		assert.Equal(t, 4, bill.BillMonth)
		assert.Equal(t, 2026, bill.BillYear)
		assert.Equal(t, billingdomain.BillStatusPending, bill.Status)
	}
}

func TestRunOnceIsIdempotentWithinPeriod(t *testing.T) {
	f := newFixture(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	org := f.seedSociety(t)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.NoError(t, f.sched.RunOnce(context.Background()))

	assert.Len(t, f.bills(t, org.ID), 2)
}

func TestGenerationWaitsForGenerationHour(t *testing.T) {
	// On the 1st at midnight the generation window has not opened yet.
	f := newFixture(t, time.Date(2026, 5, 1, 0, 30, 0, 0, time.UTC))
	org := f.seedSociety(t)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Empty(t, f.bills(t, org.ID))

	f.clk.Advance(6 * time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Len(t, f.bills(t, org.ID), 2)
}

func TestSweepMarksBillsOverdueAfterDueDate(t *testing.T) {
	f := newFixture(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	org := f.seedSociety(t)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	// Still before the due day: sweep must not touch anything.
	require.NoError(t, f.sched.OverdueSweepJob(context.Background()))
	for _, bill := range f.bills(t, org.ID) {
		assert.Equal(t, billingdomain.BillStatusPending, bill.Status)
	}

	f.clk.Advance(10 * 24 * time.Hour)
	require.NoError(t, f.sched.OverdueSweepJob(context.Background()))
	for _, bill := range f.bills(t, org.ID) {
		assert.Equal(t, billingdomain.BillStatusOverdue, bill.Status)
	}
}

func TestRollsOverToNextPeriod(t *testing.T) {
	f := newFixture(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	org := f.seedSociety(t)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Len(t, f.bills(t, org.ID), 2)

	// Cross into May, past the generation hour.
	f.clk.Advance(30 * 24 * time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Len(t, f.bills(t, org.ID), 4)
}
