package domain

import "github.com/shopspring/decimal"

// Pricing policy constants.
var (
	TaxRate       = decimal.New(20, -2) // 20% VAT
	PromoRate     = decimal.New(5, -2)  // fixed 5% promo discount
	CashCeiling   = decimal.NewFromInt(20000)
	moneyExponent = int32(2)
)

// Pricing is the breakdown computed once at order creation. Loyalty and promo
// discounts are both taken off the original subtotal, not compounded.
type Pricing struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	LoyaltyDiscount     decimal.Decimal `json:"loyalty_discount"`
	PromoDiscount       decimal.Decimal `json:"promo_discount"`
	TotalDiscount       decimal.Decimal `json:"total_discount"`
	AmountAfterDiscount decimal.Decimal `json:"amount_after_discount"`
	Tax                 decimal.Decimal `json:"tax"`
	TotalWithTax        decimal.Decimal `json:"total_with_tax"`
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyExponent)
}

// ComputePricing prices a line set for a loyalty tier, optionally applying the
// fixed-rate promo discount. Each derived value is rounded to 2 places as it
// is computed.
func ComputePricing(lines []OrderLine, tier LoyaltyTier, promoApplied bool) Pricing {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = round(subtotal)

	loyalty := round(subtotal.Mul(tier.DiscountRate()))

	promo := decimal.Zero
	if promoApplied {
		promo = round(subtotal.Mul(PromoRate))
	}

	totalDiscount := loyalty.Add(promo)
	afterDiscount := subtotal.Sub(totalDiscount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	tax := round(afterDiscount.Mul(TaxRate))

	return Pricing{
		Subtotal:            subtotal,
		LoyaltyDiscount:     loyalty,
		PromoDiscount:       promo,
		TotalDiscount:       totalDiscount,
		AmountAfterDiscount: afterDiscount,
		Tax:                 tax,
		TotalWithTax:        afterDiscount.Add(tax),
	}
}
