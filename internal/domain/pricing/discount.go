package pricing

import (
	"github.com/shopspring/decimal"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/money"
)

// Discount is the length-of-stay tier applied to a stay.
type Discount struct {
	Percentage decimal.Decimal
	Amount     money.Money
	RuleID     string
	MinNights  int
}

// ResolveDiscount picks the active rule with the largest MinNights not above
// nights and applies it to the discountable subtotal. Tiers never stack; the
// amount is rounded once on the aggregate.
func ResolveDiscount(nights int, discountable money.Money, rules []rates.DiscountRule) (Discount, error) {
	if nights <= 0 {
		return Discount{}, invalidStay(ConstraintNights, nights, 1, "stay must cover at least one night, got %d", nights)
	}
	var (
		best  rates.DiscountRule
		found bool
	)
	for _, r := range rules {
		if !r.Active || r.MinNights > nights {
			continue
		}
		if !found || r.MinNights > best.MinNights ||
			(r.MinNights == best.MinNights && r.Percentage.GreaterThan(best.Percentage)) {
			best = r
			found = true
		}
	}
	if !found {
		return Discount{Percentage: decimal.Zero, Amount: money.Zero(discountable.Currency)}, nil
	}
	return Discount{
		Percentage: best.Percentage,
		Amount:     discountable.Percent(best.Percentage),
		RuleID:     best.ID,
		MinNights:  best.MinNights,
	}, nil
}
