package charge

import (
	"testing"

	"github.com/shopspring/decimal"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func fixedOrg() orgdomain.Organization {
	return orgdomain.Organization{
		CalculateMaintenanceBy: orgdomain.CalculationFixed,
		MaintenanceAmount:      decPtr("1500"),
		TenantMaintAmount:      decPtr("1800"),
		PenaltyAmount:          decPtr("100"),
		// Rate fields populated with garbage to prove they are ignored.
		MaintenanceRate: decPtr("9999"),
		TenantMaintRate: decPtr("9999"),
		PenaltyRate:     decPtr("9999"),
	}
}

func perSQFTOrg() orgdomain.Organization {
	return orgdomain.Organization{
		CalculateMaintenanceBy: orgdomain.CalculationPerSQFT,
		MaintenanceRate:        decPtr("2.5"),
		TenantMaintRate:        decPtr("3"),
		PenaltyRate:            decPtr("0.5"),
		MaintenanceAmount:      decPtr("9999"),
		TenantMaintAmount:      decPtr("9999"),
		PenaltyAmount:          decPtr("9999"),
	}
}

func TestResolveFixedIgnoresRates(t *testing.T) {
	org := fixedOrg()

	owner := unitdomain.Unit{Area: dec("1000"), IsTenant: false}
	got, err := Resolve(org, owner)
	require.NoError(t, err)
	assert.True(t, got.Base.Equal(dec("1500")), "base %s", got.Base)
	assert.True(t, got.Penalty.Equal(dec("100")), "penalty %s", got.Penalty)

	tenant := unitdomain.Unit{Area: dec("1000"), IsTenant: true}
	got, err = Resolve(org, tenant)
	require.NoError(t, err)
	assert.True(t, got.Base.Equal(dec("1800")))
}

func TestResolvePerSQFTScalesWithArea(t *testing.T) {
	org := perSQFTOrg()

	unit := unitdomain.Unit{Area: dec("1000")}
	got, err := Resolve(org, unit)
	require.NoError(t, err)
	assert.True(t, got.Base.Equal(dec("2500")), "base %s", got.Base)
	assert.True(t, got.Penalty.Equal(dec("500")), "penalty %s", got.Penalty)

	double := unitdomain.Unit{Area: dec("2000")}
	doubled, err := Resolve(org, double)
	require.NoError(t, err)
	assert.True(t, doubled.Base.Equal(got.Base.Mul(dec("2"))))

	tenant := unitdomain.Unit{Area: dec("1000"), IsTenant: true}
	got, err = Resolve(org, tenant)
	require.NoError(t, err)
	assert.True(t, got.Base.Equal(dec("3000")))
}

func TestResolveMisconfiguration(t *testing.T) {
	tests := []struct {
		name string
		org  orgdomain.Organization
		unit unitdomain.Unit
	}{
		{
			name: "fixed mode missing amount",
			org: orgdomain.Organization{
				CalculateMaintenanceBy: orgdomain.CalculationFixed,
				PenaltyAmount:          decPtr("100"),
			},
		},
		{
			name: "fixed mode negative amount",
			org: orgdomain.Organization{
				CalculateMaintenanceBy: orgdomain.CalculationFixed,
				MaintenanceAmount:      decPtr("-10"),
				PenaltyAmount:          decPtr("100"),
			},
		},
		{
			name: "per sqft missing rate",
			org: orgdomain.Organization{
				CalculateMaintenanceBy: orgdomain.CalculationPerSQFT,
				PenaltyRate:            decPtr("0.5"),
			},
			unit: unitdomain.Unit{Area: dec("1000")},
		},
		{
			name: "per sqft missing penalty rate",
			org: orgdomain.Organization{
				CalculateMaintenanceBy: orgdomain.CalculationPerSQFT,
				MaintenanceRate:        decPtr("2.5"),
			},
			unit: unitdomain.Unit{Area: dec("1000")},
		},
		{
			name: "unknown mode",
			org:  orgdomain.Organization{CalculateMaintenanceBy: "HOURLY"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.org, tc.unit)
			assert.ErrorIs(t, err, billingdomain.ErrInvalidRateConfig)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	org := perSQFTOrg()
	unit := unitdomain.Unit{Area: dec("750.25")}

	first, err := Resolve(org, unit)
	require.NoError(t, err)
	second, err := Resolve(org, unit)
	require.NoError(t, err)

	assert.True(t, first.Base.Equal(second.Base))
	assert.True(t, first.Penalty.Equal(second.Penalty))
}

func TestAggregateExtrasEmpty(t *testing.T) {
	got, err := AggregateExtras(nil, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)
	assert.Empty(t, got.Extras)
	assert.True(t, got.Total.IsZero())
}

func TestAggregateExtrasPreservesOrderAndSums(t *testing.T) {
	items := []orgdomain.ExtraItem{
		{ID: "a", Name: "Parking", Amount: dec("300")},
		{ID: "b", Name: "Water", Amount: dec("150.50")},
		{ID: "c", Name: "Gym", Amount: dec("49.50")},
	}

	got, err := AggregateExtras(items, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)
	require.Len(t, got.Extras, 3)
	assert.Equal(t, "Parking", got.Extras[0].Name)
	assert.Equal(t, "Water", got.Extras[1].Name)
	assert.Equal(t, "Gym", got.Extras[2].Name)
	assert.True(t, got.Total.Equal(dec("500")), "total %s", got.Total)
}

func TestAggregateExtrasTotalOrderInvariant(t *testing.T) {
	forward := []orgdomain.ExtraItem{
		{ID: "a", Amount: dec("300")},
		{ID: "b", Amount: dec("150")},
		{ID: "c", Amount: dec("50")},
	}
	reversed := []orgdomain.ExtraItem{forward[2], forward[1], forward[0]}
	period := billingdomain.Period{Month: 1, Year: 2026}

	a, err := AggregateExtras(forward, period)
	require.NoError(t, err)
	b, err := AggregateExtras(reversed, period)
	require.NoError(t, err)

	assert.True(t, a.Total.Equal(b.Total))
}

func TestAggregateExtrasNegativeExcluded(t *testing.T) {
	items := []orgdomain.ExtraItem{
		{ID: "a", Name: "Parking", Amount: dec("300")},
		{ID: "b", Name: "Refund", Amount: dec("-50")},
	}

	got, err := AggregateExtras(items, billingdomain.Period{Month: 1, Year: 2026})
	assert.ErrorIs(t, err, billingdomain.ErrNegativeExtra)
	require.Len(t, got.Extras, 1)
	assert.True(t, got.Total.Equal(dec("300")))
}

func TestAggregateExtrasMonthScoping(t *testing.T) {
	march := 3
	year := 2026
	items := []orgdomain.ExtraItem{
		{ID: "a", Name: "Parking", Amount: dec("300")},
		{ID: "b", Name: "Festival", Amount: dec("500"), Month: &march, Year: &year},
	}

	inMarch, err := AggregateExtras(items, billingdomain.Period{Month: 3, Year: 2026})
	require.NoError(t, err)
	assert.True(t, inMarch.Total.Equal(dec("800")))

	inApril, err := AggregateExtras(items, billingdomain.Period{Month: 4, Year: 2026})
	require.NoError(t, err)
	assert.True(t, inApril.Total.Equal(dec("300")))
	require.Len(t, inApril.Extras, 1)
}
