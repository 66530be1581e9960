package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "Pending"
	PayoutProcessing PayoutStatus = "Processing"
	PayoutCompleted  PayoutStatus = "Completed"
	PayoutCancelled  PayoutStatus = "Cancelled"
)

// Payout is a withdrawal of accumulated ticket revenue. Completed and
// Cancelled are terminal.
type Payout struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	OrganizerID string          `json:"organizer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PayoutStatus    `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutProcessing, PayoutCompleted, PayoutCancelled},
	PayoutProcessing: {PayoutCompleted},
}

// CanTransitionPayout reports whether a payout may move from one status to
// another.
func CanTransitionPayout(from, to PayoutStatus) bool {
	for _, next := range payoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
