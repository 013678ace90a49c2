package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type LoyaltyTier string

const (
	TierBasic    LoyaltyTier = "BASIC"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
)

// Loyalty policy constants. Thresholds apply to either cumulative order count
// or cumulative spend, whichever is reached first.
var (
	tierDiscountRates = map[LoyaltyTier]decimal.Decimal{
		TierBasic:    decimal.Zero,
		TierSilver:   decimal.New(5, -2),
		TierGold:     decimal.New(10, -2),
		TierPlatinum: decimal.New(15, -2),
	}

	SilverMinOrders   = 3
	GoldMinOrders     = 10
	PlatinumMinOrders = 20

	SilverMinSpend   = decimal.NewFromInt(1000)
	GoldMinSpend     = decimal.NewFromInt(5000)
	PlatinumMinSpend = decimal.NewFromInt(15000)
)

var tierRanks = map[LoyaltyTier]int{
	TierBasic:    0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

func (t LoyaltyTier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// DiscountRate returns the fractional discount for the tier, e.g. 0.05 for SILVER.
func (t LoyaltyTier) DiscountRate() decimal.Decimal {
	rate, ok := tierDiscountRates[t]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// TierFor derives the loyalty tier from cumulative stats.
func TierFor(orderCount int, totalSpent decimal.Decimal) LoyaltyTier {
	switch {
	case orderCount >= PlatinumMinOrders || totalSpent.GreaterThanOrEqual(PlatinumMinSpend):
		return TierPlatinum
	case orderCount >= GoldMinOrders || totalSpent.GreaterThanOrEqual(GoldMinSpend):
		return TierGold
	case orderCount >= SilverMinOrders || totalSpent.GreaterThanOrEqual(SilverMinSpend):
		return TierSilver
	default:
		return TierBasic
	}
}

var phonePattern = regexp.MustCompile(`^(\+212|0)[5-7][0-9]{8}$`)

type Customer struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	Phone      string          `json:"phone"`
	Address    string          `json:"address"`
	Tier       LoyaltyTier     `json:"loyalty_tier"`
	OrderCount int             `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (c *Customer) Validate() error {
	if c.Username == "" {
		return Invalid("username", "is required")
	}
	if !phonePattern.MatchString(c.Phone) {
		return Invalid("phone", "must match +212XXXXXXXXX or 0XXXXXXXXX")
	}
	if n := len(c.Address); n < 10 || n > 255 {
		return Invalid("address", "must be between 10 and 255 characters")
	}
	if !c.Tier.Valid() {
		return Invalid("loyalty_tier", "unknown tier")
	}
	return nil
}

// ApplyConfirmedOrder updates cumulative stats after an order confirmation and
// recomputes the tier. The derivation never downgrades an existing tier.
func (c *Customer) ApplyConfirmedOrder(amount decimal.Decimal) {
	c.OrderCount++
	c.TotalSpent = c.TotalSpent.Add(amount)

	derived := TierFor(c.OrderCount, c.TotalSpent)
	if tierRanks[derived] > tierRanks[c.Tier] {
		c.Tier = derived
	}
}
