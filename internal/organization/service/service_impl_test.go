package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/internal/organization/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	return NewService(repository.NewRepository(db), node, clk, zap.NewNop())
}

func createSociety(t *testing.T, svc domain.Service) *domain.Organization {
	t.Helper()
	org, err := svc.Create(context.Background(), domain.CreateOrganizationRequest{
		Name:       "Green Meadows",
		Address:    "12 Lake Road",
		City:       "Pune",
		TotalUnits: 40,
	})
	require.NoError(t, err)
	return org
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := newTestService(t)
	createSociety(t, svc)

	_, err := svc.Create(context.Background(), domain.CreateOrganizationRequest{
		Name: "Green Meadows",
	})
	assert.ErrorIs(t, err, domain.ErrOrganizationExists)
}

func TestUpdateBillingSettingsFixed(t *testing.T) {
	svc := newTestService(t)
	org := createSociety(t, svc)

	dueDay := 10
	updated, err := svc.UpdateBillingSettings(context.Background(), org.ID.String(), domain.BillingSettingsRequest{
		CalculateMaintenanceBy: domain.CalculationFixed,
		MaintenanceAmount:      dec("2000"),
		TenantMaintAmount:      dec("2500"),
		PenaltyAmount:          dec("200"),
		DueDay:                 &dueDay,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CalculationFixed, updated.CalculateMaintenanceBy)
	assert.Equal(t, 10, updated.DueDay)
	assert.True(t, updated.MaintenanceAmount.Equal(decimal.NewFromInt(2000)))
}

func TestUpdateBillingSettingsMissingRate(t *testing.T) {
	svc := newTestService(t)
	org := createSociety(t, svc)

	_, err := svc.UpdateBillingSettings(context.Background(), org.ID.String(), domain.BillingSettingsRequest{
		CalculateMaintenanceBy: domain.CalculationPerSQFT,
		MaintenanceRate:        dec("2.5"),
		// tenant and penalty rates absent
	})
	assert.ErrorIs(t, err, domain.ErrIncompleteRateSetup)
}

func TestUpdateBillingSettingsRejectsBadDueDay(t *testing.T) {
	svc := newTestService(t)
	org := createSociety(t, svc)

	dueDay := 32
	_, err := svc.UpdateBillingSettings(context.Background(), org.ID.String(), domain.BillingSettingsRequest{
		CalculateMaintenanceBy: domain.CalculationFixed,
		MaintenanceAmount:      dec("2000"),
		TenantMaintAmount:      dec("2000"),
		PenaltyAmount:          dec("0"),
		DueDay:                 &dueDay,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDueDay)
}

func TestAddAndRemoveExtra(t *testing.T) {
	svc := newTestService(t)
	org := createSociety(t, svc)

	month := 5
	year := 2024
	updated, err := svc.AddExtra(context.Background(), org.ID.String(), domain.ExtraItem{
		Name:   "Festival fund",
		Amount: decimal.NewFromInt(150),
		Month:  &month,
		Year:   &year,
	})
	require.NoError(t, err)
	require.Len(t, updated.Extras, 1)
	assert.NotEmpty(t, updated.Extras[0].ID)

	updated, err = svc.RemoveExtra(context.Background(), org.ID.String(), updated.Extras[0].ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Extras)

	_, err = svc.RemoveExtra(context.Background(), org.ID.String(), "missing")
	assert.ErrorIs(t, err, domain.ErrExtraNotFound)
}

func TestAddExtraRejectsNegativeAmount(t *testing.T) {
	svc := newTestService(t)
	org := createSociety(t, svc)

	_, err := svc.AddExtra(context.Background(), org.ID.String(), domain.ExtraItem{
		Name:   "Refund",
		Amount: decimal.NewFromInt(-10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidExtra)
}
