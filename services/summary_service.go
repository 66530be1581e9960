package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"tickethub/models"
	"tickethub/monitoring"
	"tickethub/utils"
)

// SummaryService maintains the monthly_summaries rollup. Increments go
// through a single atomic upsert per document, so concurrent confirmations
// of different sales in the same month never lose counts.
type SummaryService struct {
	app core.App
}

func NewSummaryService(app core.App) *SummaryService {
	return &SummaryService{app: app}
}

// OnSaleSuccess folds a newly-successful sale into its creation month.
// Callers must invoke this exactly once per sale; the Sale Recorder's
// idempotency guarantees that for gateway replays.
func (s *SummaryService) OnSaleSuccess(sale *core.Record) error {
	month := models.MonthKey(sale.GetDateTime("created").Time())

	amount := sale.GetFloat("total_amount")
	revenue := sale.GetFloat("revenue")

	err := s.applyDelta(month, delta{
		tickets: sale.GetInt("quantity"),
		amount:  amount,
		revenue: revenue,
		balance: amount - revenue,
	})
	if err != nil {
		return fmt.Errorf("summary: apply sale %s: %w", sale.Id, err)
	}

	monitoring.TrackSummaryUpdate("sale")
	return nil
}

// OnPayoutComplete folds a completed payout into the payout's own creation
// month, decrementing the balance owed to organizers.
func (s *SummaryService) OnPayoutComplete(payout *core.Record) error {
	month := models.MonthKey(payout.GetDateTime("created").Time())

	amount := payout.GetFloat("amount")

	err := s.applyDelta(month, delta{
		payouts: amount,
		balance: -amount,
	})
	if err != nil {
		return fmt.Errorf("summary: apply payout %s: %w", payout.Id, err)
	}

	monitoring.TrackSummaryUpdate("payout")
	return nil
}

type delta struct {
	tickets int
	amount  float64
	revenue float64
	payouts float64
	balance float64
}

func (s *SummaryService) applyDelta(month string, d delta) error {
	id, err := utils.NewRecordID()
	if err != nil {
		return err
	}
	now := types.NowDateTime().String()

	_, err = s.app.DB().NewQuery(`
		INSERT INTO monthly_summaries
			(id, month, total_tickets_sold, total_ticket_amount, total_revenue, total_payouts, balance, created, updated)
		VALUES
			({:id}, {:month}, {:tickets}, {:amount}, {:revenue}, {:payouts}, {:balance}, {:now}, {:now})
		ON CONFLICT(month) DO UPDATE SET
			total_tickets_sold  = total_tickets_sold + {:tickets},
			total_ticket_amount = ROUND(total_ticket_amount + {:amount}, 2),
			total_revenue       = ROUND(total_revenue + {:revenue}, 2),
			total_payouts       = ROUND(total_payouts + {:payouts}, 2),
			balance             = ROUND(balance + {:balance}, 2),
			updated             = {:now}
	`).Bind(dbx.Params{
		"id":      id,
		"month":   month,
		"tickets": d.tickets,
		"amount":  d.amount,
		"revenue": d.revenue,
		"payouts": d.payouts,
		"balance": d.balance,
		"now":     now,
	}).Execute()

	return err
}

type saleGroup struct {
	Month   string  `db:"month"`
	Tickets int     `db:"tickets"`
	Amount  float64 `db:"amount"`
	Revenue float64 `db:"revenue"`
}

type payoutGroup struct {
	Month  string  `db:"month"`
	Amount float64 `db:"amount"`
}

// RecomputeAll discards every summary row and rebuilds them from the sale
// and payout history. Re-running it is idempotent: the same underlying
// records always produce identical rows. Months that only have payouts and
// no successful sales do not materialize a row.
func (s *SummaryService) RecomputeAll() error {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		if _, err := txApp.DB().NewQuery("DELETE FROM monthly_summaries").Execute(); err != nil {
			return fmt.Errorf("clear summaries: %w", err)
		}

		var sales []saleGroup
		err := txApp.DB().NewQuery(`
			SELECT strftime('%Y-%m', created) AS month,
				COALESCE(SUM(quantity), 0)     AS tickets,
				COALESCE(SUM(total_amount), 0) AS amount,
				COALESCE(SUM(revenue), 0)      AS revenue
			FROM ticket_sales
			WHERE payment_status = 'Successful'
			GROUP BY month
		`).All(&sales)
		if err != nil {
			return fmt.Errorf("group sales: %w", err)
		}

		var payouts []payoutGroup
		err = txApp.DB().NewQuery(`
			SELECT strftime('%Y-%m', created) AS month,
				COALESCE(SUM(amount), 0) AS amount
			FROM payouts
			WHERE status = 'Completed'
			GROUP BY month
		`).All(&payouts)
		if err != nil {
			return fmt.Errorf("group payouts: %w", err)
		}

		paidByMonth := make(map[string]float64, len(payouts))
		for _, p := range payouts {
			paidByMonth[p.Month] = p.Amount
		}

		now := types.NowDateTime().String()
		for _, g := range sales {
			id, err := utils.NewRecordID()
			if err != nil {
				return err
			}

			paid := paidByMonth[g.Month]
			balance, _ := decimal.NewFromFloat(g.Amount).
				Sub(decimal.NewFromFloat(g.Revenue)).
				Sub(decimal.NewFromFloat(paid)).
				Round(2).Float64()

			_, err = txApp.DB().NewQuery(`
				INSERT INTO monthly_summaries
					(id, month, total_tickets_sold, total_ticket_amount, total_revenue, total_payouts, balance, created, updated)
				VALUES
					({:id}, {:month}, {:tickets}, {:amount}, {:revenue}, {:payouts}, {:balance}, {:now}, {:now})
			`).Bind(dbx.Params{
				"id":      id,
				"month":   g.Month,
				"tickets": g.Tickets,
				"amount":  g.Amount,
				"revenue": g.Revenue,
				"payouts": paid,
				"balance": balance,
				"now":     now,
			}).Execute()
			if err != nil {
				return fmt.Errorf("insert summary %s: %w", g.Month, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("summary: recompute: %w", err)
	}

	monitoring.TrackSummaryUpdate("recompute")
	return nil
}

// List returns all summaries ordered by month descending.
func (s *SummaryService) List() ([]*core.Record, error) {
	return s.app.FindRecordsByFilter("monthly_summaries", "id != ''", "-month", 0, 0)
}
