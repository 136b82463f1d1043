// Package charge holds the pure rate-resolution and extras arithmetic for
// maintenance billing. Everything here is deterministic and side-effect free
// so ledger rebuilds are reproducible across retries.
package charge

import (
	"github.com/shopspring/decimal"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
)

// Charge is a unit's resolved base monthly charge and flat per-period
// penalty.
type Charge struct {
	Base    decimal.Decimal
	Penalty decimal.Decimal
}

// Resolve computes the base and penalty charge for a unit from the
// organization's rate configuration. In FIXED mode the per-area rate fields
// are ignored entirely; in PER_SQFT mode the fixed amounts are ignored.
func Resolve(org orgdomain.Organization, unit unitdomain.Unit) (Charge, error) {
	switch org.CalculateMaintenanceBy {
	case orgdomain.CalculationFixed:
		amount := org.MaintenanceAmount
		if unit.IsTenant {
			amount = org.TenantMaintAmount
		}
		if !usable(amount) || !usable(org.PenaltyAmount) {
			return Charge{}, billingdomain.ErrInvalidRateConfig
		}
		return Charge{Base: *amount, Penalty: *org.PenaltyAmount}, nil

	case orgdomain.CalculationPerSQFT:
		rate := org.MaintenanceRate
		if unit.IsTenant {
			rate = org.TenantMaintRate
		}
		if !usable(rate) || !usable(org.PenaltyRate) || unit.Area.IsNegative() {
			return Charge{}, billingdomain.ErrInvalidRateConfig
		}
		return Charge{
			Base:    unit.Area.Mul(*rate),
			Penalty: unit.Area.Mul(*org.PenaltyRate),
		}, nil

	default:
		return Charge{}, billingdomain.ErrInvalidRateConfig
	}
}

// ExtrasTotal is the aggregated view of a period's additional charges.
// Extras preserves input order; Total sums only valid amounts.
type ExtrasTotal struct {
	Extras []billingdomain.ExtraCharge
	Total  decimal.Decimal
}

// AggregateExtras snapshots the configured extras that apply to the period
// and sums their amounts. A negative amount is excluded from the total and
// reported via ErrNegativeExtra; the partial result is still returned so the
// caller decides whether to abort or skip.
func AggregateExtras(items []orgdomain.ExtraItem, period billingdomain.Period) (ExtrasTotal, error) {
	out := ExtrasTotal{
		Extras: make([]billingdomain.ExtraCharge, 0, len(items)),
		Total:  decimal.Zero,
	}

	var invalid bool
	for _, item := range items {
		if !appliesTo(item, period) {
			continue
		}
		if item.Amount.IsNegative() {
			invalid = true
			continue
		}
		out.Extras = append(out.Extras, billingdomain.ExtraCharge{
			ID:     item.ID,
			Name:   item.Name,
			Amount: item.Amount,
		})
		out.Total = out.Total.Add(item.Amount)
	}

	if invalid {
		return out, billingdomain.ErrNegativeExtra
	}
	return out, nil
}

// SumExtras totals an already-snapshotted extras list.
func SumExtras(extras []billingdomain.ExtraCharge) decimal.Decimal {
	total := decimal.Zero
	for _, extra := range extras {
		total = total.Add(extra.Amount)
	}
	return total
}

func appliesTo(item orgdomain.ExtraItem, period billingdomain.Period) bool {
	if item.Month != nil && *item.Month != period.Month {
		return false
	}
	if item.Year != nil && *item.Year != period.Year {
		return false
	}
	return true
}

func usable(v *decimal.Decimal) bool {
	return v != nil && !v.IsNegative()
}
