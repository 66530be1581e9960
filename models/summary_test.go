package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-05", MonthKey(time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC)))

	// keys are always UTC months
	tz := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, "2024-05", MonthKey(time.Date(2024, 6, 1, 3, 0, 0, 0, tz)))
}

func saleIn(month time.Time, qty int, total, revenue string) TicketSale {
	return TicketSale{
		Quantity:      qty,
		TotalAmount:   decimal.RequireFromString(total),
		Revenue:       decimal.RequireFromString(revenue),
		PaymentStatus: PaymentSuccessful,
		CreatedAt:     month,
	}
}

func TestBuildSummaries_SingleMonth(t *testing.T) {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	sales := []TicketSale{
		saleIn(may, 1, "100", "10"),
		saleIn(may, 2, "200", "20"),
	}

	got := BuildSummaries(sales, nil)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "2024-05", s.Month)
	assert.Equal(t, 3, s.TotalTicketsSold)
	assert.Equal(t, "300.00", s.TotalTicketAmount.StringFixed(2))
	assert.Equal(t, "30.00", s.TotalRevenue.StringFixed(2))
	assert.Equal(t, "270.00", s.Balance.StringFixed(2))

	// a completed payout in the same month moves the balance
	payouts := []Payout{{
		Amount:    decimal.NewFromInt(50),
		Status:    PayoutCompleted,
		CreatedAt: may,
	}}

	got = BuildSummaries(sales, payouts)
	require.Len(t, got, 1)
	assert.Equal(t, "50.00", got[0].TotalPayouts.StringFixed(2))
	assert.Equal(t, "220.00", got[0].Balance.StringFixed(2))
}

func TestBuildSummaries_SkipsNonSuccessfulAndNonCompleted(t *testing.T) {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	sales := []TicketSale{
		saleIn(may, 1, "100", "10"),
		{Quantity: 5, TotalAmount: decimal.NewFromInt(500), PaymentStatus: PaymentPending, CreatedAt: may},
		{Quantity: 5, TotalAmount: decimal.NewFromInt(500), PaymentStatus: PaymentFailed, CreatedAt: may},
	}
	payouts := []Payout{
		{Amount: decimal.NewFromInt(40), Status: PayoutPending, CreatedAt: may},
		{Amount: decimal.NewFromInt(40), Status: PayoutCancelled, CreatedAt: may},
	}

	got := BuildSummaries(sales, payouts)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].TotalTicketsSold)
	assert.True(t, got[0].TotalPayouts.IsZero())
}

func TestBuildSummaries_PayoutOnlyMonthProducesNoRow(t *testing.T) {
	payouts := []Payout{{
		Amount:    decimal.NewFromInt(50),
		Status:    PayoutCompleted,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}}

	got := BuildSummaries(nil, payouts)
	assert.Empty(t, got)
}

func TestBuildSummaries_MatchesIncrementalFold(t *testing.T) {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	sales := []TicketSale{
		saleIn(may, 2, "150.50", "7.53"),
		saleIn(may, 1, "99.99", "5.00"),
		saleIn(jun, 4, "400", "40"),
	}
	payouts := []Payout{
		{Amount: decimal.NewFromInt(100), Status: PayoutCompleted, CreatedAt: may},
	}

	// fold the same records one at a time
	mayFold := MonthlySummary{Month: "2024-05"}
	mayFold = ApplySale(mayFold, sales[0])
	mayFold = ApplySale(mayFold, sales[1])
	mayFold = ApplyPayout(mayFold, payouts[0])

	junFold := MonthlySummary{Month: "2024-06"}
	junFold = ApplySale(junFold, sales[2])

	got := BuildSummaries(sales, payouts)
	require.Len(t, got, 2)
	assert.Equal(t, mayFold, got[0])
	assert.Equal(t, junFold, got[1])

	// rebuilding is idempotent
	again := BuildSummaries(sales, payouts)
	assert.Equal(t, got, again)
}
