// Package ledger builds the per-unit dues breakdown: one line per
// outstanding billing period with base, extras, penalty and subtotal.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/internal/billing/charge"
	"github.com/societyos/upkeep/internal/billing/domain"
	"go.uber.org/zap"
)

// Build walks a unit's bills and produces the outstanding-dues breakdown as
// of the given period. Only PENDING and OVERDUE bills with period <= asOf
// qualify; base amounts are taken from each bill as frozen at generation
// time. penaltyPerPeriod is the unit's resolved flat penalty, applied once
// per OVERDUE line. Malformed bills are skipped with a warning so one bad
// record never blocks the rest of the dues.
func Build(bills []domain.MaintenanceBill, asOf domain.Period, penaltyPerPeriod decimal.Decimal, log *zap.Logger) domain.Breakdown {
	breakdown := domain.Breakdown{
		BaseAmount: decimal.Zero,
		Extras:     []domain.ExtraCharge{},
		ExtraTotal: decimal.Zero,
		Penalty:    decimal.Zero,
		Dues:       []domain.DuesLine{},
		TotalDue:   decimal.Zero,
	}

	selected := make([]domain.MaintenanceBill, 0, len(bills))
	for _, bill := range bills {
		if !bill.Status.Outstanding() {
			continue
		}
		if bill.Period().Compare(asOf) > 0 {
			continue
		}
		if !bill.Period().Valid() || bill.Amount.IsNegative() {
			log.Warn("skipping malformed bill record",
				zap.String("bill_id", bill.ID.String()),
				zap.Int("month", bill.BillMonth),
				zap.Int("year", bill.BillYear),
				zap.String("amount", bill.Amount.String()),
			)
			continue
		}
		selected = append(selected, bill)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Period().Compare(selected[j].Period()) < 0
	})

	for _, bill := range selected {
		extras := []domain.ExtraCharge(bill.Extras)
		extraTotal := charge.SumExtras(extras)

		penalty := decimal.Zero
		if bill.Status == domain.BillStatusOverdue {
			penalty = penaltyPerPeriod
		}

		line := domain.DuesLine{
			Month:      bill.BillMonth,
			Year:       bill.BillYear,
			Status:     bill.Status,
			BaseAmount: bill.Amount,
			Extras:     extras,
			ExtraTotal: extraTotal,
			Penalty:    penalty,
			Subtotal:   bill.Amount.Add(extraTotal).Add(penalty),
		}

		breakdown.Dues = append(breakdown.Dues, line)
		breakdown.ExtraTotal = breakdown.ExtraTotal.Add(extraTotal)
		breakdown.Penalty = breakdown.Penalty.Add(penalty)
		breakdown.TotalDue = breakdown.TotalDue.Add(line.Subtotal)

		// Reference values track the most recent period.
		breakdown.BaseAmount = bill.Amount
		breakdown.Extras = extras
	}

	return breakdown
}
