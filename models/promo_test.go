package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyDiscount_Percentage(t *testing.T) {
	got := ApplyDiscount(decimal.NewFromInt(1030), DiscountPercentage, decimal.NewFromInt(10))

	assert.Equal(t, "927.00", got.StringFixed(2))
}

func TestApplyDiscount_Fixed(t *testing.T) {
	got := ApplyDiscount(decimal.NewFromInt(100), DiscountFixed, decimal.NewFromInt(25))

	assert.Equal(t, "75.00", got.StringFixed(2))
}

func TestApplyDiscount_NeverNegative(t *testing.T) {
	got := ApplyDiscount(decimal.NewFromInt(10), DiscountFixed, decimal.NewFromInt(50))

	assert.True(t, got.IsZero())
}

func TestApplyDiscount_PercentageClamped(t *testing.T) {
	over := ApplyDiscount(decimal.NewFromInt(100), DiscountPercentage, decimal.NewFromInt(150))
	under := ApplyDiscount(decimal.NewFromInt(100), DiscountPercentage, decimal.NewFromInt(-10))

	assert.True(t, over.IsZero())
	assert.Equal(t, "100.00", under.StringFixed(2))
}

func TestDerivePromoStatus(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		promo PromoCode
		want  PromoStatus
	}{
		{"active with future expiry", PromoCode{Status: PromoActive, ExpiryDate: now.Add(time.Hour)}, PromoActive},
		{"active without expiry", PromoCode{Status: PromoActive}, PromoActive},
		{"active past expiry", PromoCode{Status: PromoActive, ExpiryDate: now.Add(-time.Hour)}, PromoExpired},
		{"closed stays closed past expiry", PromoCode{Status: PromoClosed, ExpiryDate: now.Add(-time.Hour)}, PromoClosed},
		{"expiry boundary counts as expired", PromoCode{Status: PromoActive, ExpiryDate: now}, PromoExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePromoStatus(tt.promo, now))
		})
	}
}

func TestUsageExhausted(t *testing.T) {
	assert.False(t, PromoCode{UsageLimit: 0, TimesUsed: 500}.UsageExhausted())
	assert.False(t, PromoCode{UsageLimit: 10, TimesUsed: 9}.UsageExhausted())
	assert.True(t, PromoCode{UsageLimit: 10, TimesUsed: 10}.UsageExhausted())
}

func TestApplicable(t *testing.T) {
	all := PromoCode{}
	assert.True(t, all.Applicable([]string{"t1", "t2"}))

	scoped := PromoCode{AppliesTo: []string{"t1", "t2"}}
	assert.True(t, scoped.Applicable([]string{"t1"}))
	assert.True(t, scoped.Applicable([]string{"t1", "t2"}))
	assert.False(t, scoped.Applicable([]string{"t1", "t3"}))
}
