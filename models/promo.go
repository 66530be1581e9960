package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PromoStatus string

const (
	PromoActive  PromoStatus = "Active"
	PromoClosed  PromoStatus = "Closed"
	PromoExpired PromoStatus = "Expired"
)

type PromoCode struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	Code         string          `json:"code"`
	DiscountType DiscountType    `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	UsageLimit   int             `json:"usage_limit"` // 0 = unlimited
	TimesUsed    int             `json:"times_used"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	AppliesTo    []string        `json:"applies_to"` // ticket tier ids, empty = all tiers
	Status       PromoStatus     `json:"status"`
}

// DerivePromoStatus returns the status a promo code should currently have.
// Expiry is derived lazily on read instead of by a background job; a Closed
// code stays Closed no matter what the expiry date says.
func DerivePromoStatus(p PromoCode, now time.Time) PromoStatus {
	if p.Status == PromoClosed {
		return PromoClosed
	}
	if !p.ExpiryDate.IsZero() && !p.ExpiryDate.After(now) {
		return PromoExpired
	}
	return p.Status
}

// UsageExhausted reports whether the usage cap has been reached.
func (p PromoCode) UsageExhausted() bool {
	return p.UsageLimit > 0 && p.TimesUsed >= p.UsageLimit
}

// Applicable reports whether the code covers every requested ticket tier.
// An empty AppliesTo list means the code covers all tiers of the event.
func (p PromoCode) Applicable(ticketIDs []string) bool {
	if len(p.AppliesTo) == 0 {
		return true
	}

	allowed := make(map[string]struct{}, len(p.AppliesTo))
	for _, id := range p.AppliesTo {
		allowed[id] = struct{}{}
	}

	for _, id := range ticketIDs {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}

// ApplyDiscount applies a promo discount to amount and returns the
// discounted amount rounded to currency precision. Percentage values are
// clamped to [0,100] and the result never goes below zero.
func ApplyDiscount(amount decimal.Decimal, discountType DiscountType, value decimal.Decimal) decimal.Decimal {
	switch discountType {
	case DiscountPercentage:
		if value.IsNegative() {
			value = decimal.Zero
		}
		if value.GreaterThan(oneHundred) {
			value = oneHundred
		}
		amount = amount.Sub(amount.Mul(value).Div(oneHundred))

	case DiscountFixed:
		amount = amount.Sub(value)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}
