package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnitsRoundTrip(t *testing.T) {
	tests := []string{"0", "0.01", "10", "99.99", "1030.00", "123456.78"}

	for _, raw := range tests {
		amount := decimal.RequireFromString(raw)
		minor := ToMinorUnits(amount)
		assert.True(t, FromMinorUnits(minor).Equal(amount), "amount %s", raw)
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(103000), ToMinorUnits(decimal.NewFromInt(1030)))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.01")))
}
