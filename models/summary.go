package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySummary is a per-calendar-month rollup of ticket revenue and
// payouts. Balance is the remainder owed to organizers for the month:
// total_ticket_amount - total_revenue - total_payouts.
type MonthlySummary struct {
	Month             string          `json:"month"` // "YYYY-MM"
	TotalTicketsSold  int             `json:"total_tickets_sold"`
	TotalTicketAmount decimal.Decimal `json:"total_ticket_amount"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalPayouts      decimal.Decimal `json:"total_payouts"`
	Balance           decimal.Decimal `json:"balance"`
}

// MonthKey truncates a timestamp to its calendar month bucket in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ApplySale folds one successful sale into a month summary.
func ApplySale(s MonthlySummary, sale TicketSale) MonthlySummary {
	s.TotalTicketsSold += sale.Quantity
	s.TotalTicketAmount = s.TotalTicketAmount.Add(sale.TotalAmount)
	s.TotalRevenue = s.TotalRevenue.Add(sale.Revenue)
	s.Balance = s.Balance.Add(sale.TotalAmount.Sub(sale.Revenue))
	return s
}

// ApplyPayout folds one completed payout into a month summary.
func ApplyPayout(s MonthlySummary, payout Payout) MonthlySummary {
	s.TotalPayouts = s.TotalPayouts.Add(payout.Amount)
	s.Balance = s.Balance.Sub(payout.Amount)
	return s
}

// BuildSummaries rebuilds all month summaries from scratch out of the full
// sale and payout history. Only successful sales and completed payouts
// count; a month that has payouts but no sales does not materialize a row.
// Given the same underlying records, the result matches the sum of the
// individual ApplySale/ApplyPayout increments.
func BuildSummaries(sales []TicketSale, payouts []Payout) []MonthlySummary {
	byMonth := map[string]MonthlySummary{}

	for _, sale := range sales {
		if sale.PaymentStatus != PaymentSuccessful {
			continue
		}
		month := MonthKey(sale.CreatedAt)
		s, ok := byMonth[month]
		if !ok {
			s = MonthlySummary{Month: month}
		}
		byMonth[month] = ApplySale(s, sale)
	}

	for _, payout := range payouts {
		if payout.Status != PayoutCompleted {
			continue
		}
		month := MonthKey(payout.CreatedAt)
		s, ok := byMonth[month]
		if !ok {
			// payout-only months produce no summary row
			continue
		}
		byMonth[month] = ApplyPayout(s, payout)
	}

	out := make([]MonthlySummary, 0, len(byMonth))
	for _, s := range byMonth {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
