package ledger

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bill(id int64, month, year int, status domain.BillStatus, amount string, extras ...domain.ExtraCharge) domain.MaintenanceBill {
	return domain.MaintenanceBill{
		ID:        snowflake.ID(id),
		BillMonth: month,
		BillYear:  year,
		Status:    status,
		Amount:    dec(amount),
		Extras:    datatypes.NewJSONSlice(extras),
	}
}

func TestBuildEmptyIsNotAnError(t *testing.T) {
	got := Build(nil, domain.Period{Month: 3, Year: 2026}, dec("100"), zap.NewNop())

	assert.Empty(t, got.Dues)
	assert.True(t, got.TotalDue.IsZero())
	assert.True(t, got.ExtraTotal.IsZero())
	assert.True(t, got.Penalty.IsZero())
	assert.True(t, got.BaseAmount.IsZero())
}

func TestBuildSinglePendingLine(t *testing.T) {
	bills := []domain.MaintenanceBill{
		bill(1, 3, 2026, domain.BillStatusPending, "2500",
			domain.ExtraCharge{ID: "a", Name: "Parking", Amount: dec("300")},
		),
	}

	got := Build(bills, domain.Period{Month: 3, Year: 2026}, dec("500"), zap.NewNop())

	require.Len(t, got.Dues, 1)
	line := got.Dues[0]
	assert.Equal(t, domain.BillStatusPending, line.Status)
	assert.True(t, line.Penalty.IsZero(), "pending lines accrue no penalty")
	assert.True(t, line.Subtotal.Equal(dec("2800")), "subtotal %s", line.Subtotal)
	assert.True(t, got.TotalDue.Equal(dec("2800")))
}

func TestBuildOverdueAddsFlatPenalty(t *testing.T) {
	bills := []domain.MaintenanceBill{
		bill(1, 3, 2026, domain.BillStatusOverdue, "2500",
			domain.ExtraCharge{ID: "a", Name: "Parking", Amount: dec("300")},
		),
	}

	got := Build(bills, domain.Period{Month: 4, Year: 2026}, dec("500"), zap.NewNop())

	require.Len(t, got.Dues, 1)
	line := got.Dues[0]
	assert.True(t, line.Penalty.Equal(dec("500")))
	assert.True(t, line.Subtotal.Equal(dec("3300")), "subtotal %s", line.Subtotal)
}

func TestBuildSubtotalInvariant(t *testing.T) {
	bills := []domain.MaintenanceBill{
		bill(1, 1, 2026, domain.BillStatusOverdue, "1500",
			domain.ExtraCharge{ID: "a", Amount: dec("100")},
			domain.ExtraCharge{ID: "b", Amount: dec("50.25")},
		),
		bill(2, 2, 2026, domain.BillStatusOverdue, "1500"),
		bill(3, 3, 2026, domain.BillStatusPending, "1600",
			domain.ExtraCharge{ID: "c", Amount: dec("75")},
		),
	}

	got := Build(bills, domain.Period{Month: 3, Year: 2026}, dec("100"), zap.NewNop())

	require.Len(t, got.Dues, 3)
	grand := decimal.Zero
	for _, line := range got.Dues {
		expected := line.BaseAmount
		for _, extra := range line.Extras {
			expected = expected.Add(extra.Amount)
		}
		expected = expected.Add(line.Penalty)
		assert.True(t, line.Subtotal.Equal(expected), "line %d/%d", line.Month, line.Year)
		grand = grand.Add(line.Subtotal)
	}
	assert.True(t, got.TotalDue.Equal(grand))
	assert.True(t, got.Penalty.Equal(dec("200")), "one flat penalty per overdue period")
}

func TestBuildSelectsAndOrdersChronologically(t *testing.T) {
	bills := []domain.MaintenanceBill{
		bill(1, 2, 2026, domain.BillStatusPending, "1000"),
		bill(2, 12, 2025, domain.BillStatusOverdue, "900"),
		bill(3, 1, 2026, domain.BillStatusPaid, "950"),
		bill(4, 3, 2026, domain.BillStatusPending, "1000"), // after asOf
		bill(5, 1, 2026, domain.BillStatusCancelled, "950"),
	}

	got := Build(bills, domain.Period{Month: 2, Year: 2026}, dec("50"), zap.NewNop())

	require.Len(t, got.Dues, 2)
	assert.Equal(t, 12, got.Dues[0].Month)
	assert.Equal(t, 2025, got.Dues[0].Year)
	assert.Equal(t, 2, got.Dues[1].Month)
	assert.Equal(t, 2026, got.Dues[1].Year)
}

func TestBuildHistoricalAmountsFrozen(t *testing.T) {
	// The January bill was generated when the rate was lower; rebuilding the
	// ledger with today's (higher) penalty input must not touch its base.
	bills := []domain.MaintenanceBill{
		bill(1, 1, 2026, domain.BillStatusOverdue, "1200"),
		bill(2, 2, 2026, domain.BillStatusPending, "1500"),
	}

	got := Build(bills, domain.Period{Month: 2, Year: 2026}, dec("75"), zap.NewNop())

	require.Len(t, got.Dues, 2)
	assert.True(t, got.Dues[0].BaseAmount.Equal(dec("1200")))
	assert.True(t, got.Dues[1].BaseAmount.Equal(dec("1500")))
	// Breakdown-level base references the most recent line's frozen amount.
	assert.True(t, got.BaseAmount.Equal(dec("1500")))
}

func TestBuildSkipsMalformedRecords(t *testing.T) {
	bills := []domain.MaintenanceBill{
		bill(1, 1, 2026, domain.BillStatusPending, "-100"), // negative amount
		bill(2, 0, 2026, domain.BillStatusPending, "100"),  // invalid month
		bill(3, 2, 2026, domain.BillStatusPending, "1500"),
	}

	got := Build(bills, domain.Period{Month: 2, Year: 2026}, dec("50"), zap.NewNop())

	require.Len(t, got.Dues, 1)
	assert.True(t, got.TotalDue.Equal(dec("1500")))
}
