package domain

import (
	"regexp"
	"time"
)

const (
	PromoMaxUsageMin = 1
	PromoMaxUsageMax = 10000
)

var promoCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,50}$`)

type PromoCode struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	MaxUsage   int       `json:"max_usage"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *PromoCode) Validate() error {
	if !promoCodePattern.MatchString(p.Code) {
		return Invalid("code", "must be 3 to 50 uppercase letters or digits")
	}
	if p.MaxUsage < PromoMaxUsageMin || p.MaxUsage > PromoMaxUsageMax {
		return Invalid("max_usage", "must be between 1 and 10000")
	}
	return nil
}

func (p *PromoCode) RemainingUses() int {
	return p.MaxUsage - p.UsageCount
}

func (p *PromoCode) Exhausted() bool {
	return p.UsageCount >= p.MaxUsage
}
