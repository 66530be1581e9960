package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeFinalPrice_FeeTransferredToGuest(t *testing.T) {
	final, fee := ComputeFinalPrice(decimal.NewFromInt(1000), decimal.NewFromInt(3), true)

	assert.Equal(t, "1030.00", final.StringFixed(2))
	assert.Equal(t, "30.00", fee.StringFixed(2))
}

func TestComputeFinalPrice_FeeAbsorbedByOrganizer(t *testing.T) {
	final, fee := ComputeFinalPrice(decimal.NewFromInt(1000), decimal.NewFromInt(3), false)

	assert.Equal(t, "1000.00", final.StringFixed(2))
	assert.Equal(t, "30.00", fee.StringFixed(2))
}

func TestComputeFinalPrice_Table(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		feePercent  string
		transferFee bool
		wantFinal   string
		wantFee     string
	}{
		{"zero base", "0", "5", true, "0.00", "0.00"},
		{"zero fee percent", "250", "0", true, "250.00", "0.00"},
		{"fractional fee rounds once", "99.99", "2.5", true, "102.49", "2.50"},
		{"small amount absorbed", "0.50", "5", false, "0.50", "0.03"},
		{"full percent", "80", "100", true, "160.00", "80.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, _ := decimal.NewFromString(tt.base)
			pct, _ := decimal.NewFromString(tt.feePercent)

			final, fee := ComputeFinalPrice(base, pct, tt.transferFee)

			assert.Equal(t, tt.wantFinal, final.StringFixed(2))
			assert.Equal(t, tt.wantFee, fee.StringFixed(2))
		})
	}
}

func TestComputeFinalPrice_NoCompoundingOnRecompute(t *testing.T) {
	base := decimal.RequireFromString("33.33")
	pct := decimal.RequireFromString("7.5")

	first, _ := ComputeFinalPrice(base, pct, true)
	second, _ := ComputeFinalPrice(base, pct, true)

	// Recomputing from the base must always land on the same price.
	assert.True(t, first.Equal(second))
}
