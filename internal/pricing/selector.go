package pricing

import (
	"github.com/shopspring/decimal"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

var hundred = decimal.NewFromInt(100)

// DiscountFor computes the per-unit discount a promotion yields on a unit
// price: PERCENT is price*value/100 rounded half-up to 2 decimals,
// FIXED_AMOUNT is the value itself. The result is clamped to
// [0, unit price] so the final price can never go negative.
func DiscountFor(unitPrice decimal.Decimal, promo *models.Promotion) decimal.Decimal {
	if unitPrice.Sign() <= 0 {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch promo.DiscountType {
	case domain.DiscountPercent:
		discount = unitPrice.Mul(promo.DiscountValue).Div(hundred)
	case domain.DiscountFixedAmount:
		discount = promo.DiscountValue
	default:
		return decimal.Zero
	}
	if discount.Sign() < 0 {
		return decimal.Zero
	}
	if discount.GreaterThan(unitPrice) {
		discount = unitPrice
	}
	return discount.Round(2)
}

// SelectBest picks the single best discount for a product out of the
// candidate promotions. Candidates yielding zero discount are dropped;
// the largest per-unit discount wins; ties break on scope specificity
// (PRODUCT > CATEGORY > GLOBAL) and then on the lowest promotion ID so
// repeated runs are stable.
func SelectBest(product *models.Product, candidates []*models.Promotion) *Pricing {
	var best *Pricing
	for _, promo := range candidates {
		discount := DiscountFor(product.Price, promo)
		if discount.Sign() <= 0 {
			continue
		}
		current := &Pricing{
			Promotion:       promo,
			DiscountPerUnit: discount,
			FinalPrice:      product.Price.Sub(discount),
		}
		if best == nil || beats(current, best) {
			best = current
		}
	}
	return best
}

func beats(a, b *Pricing) bool {
	switch a.DiscountPerUnit.Cmp(b.DiscountPerUnit) {
	case 1:
		return true
	case -1:
		return false
	}
	if a.Promotion.ScopeRank() != b.Promotion.ScopeRank() {
		return a.Promotion.ScopeRank() < b.Promotion.ScopeRank()
	}
	return a.Promotion.ID < b.Promotion.ID
}
