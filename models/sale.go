package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "Pending"
	PaymentSuccessful PaymentStatus = "Successful"
	PaymentFailed     PaymentStatus = "Failed"
)

type SaleStatus string

const (
	SalePaid      SaleStatus = "Paid"
	SaleCancelled SaleStatus = "Cancelled"
	SaleRefunded  SaleStatus = "Refunded"
)

// Buyer is the snapshot of the purchaser captured on a sale. Sales keep
// their own copy so later profile edits never rewrite history.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TicketSale is an immutable record of a completed purchase. Once the
// payment status is Successful only the check-in fields may change.
type TicketSale struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	TicketID         string          `json:"ticket_id"`
	Buyer            Buyer           `json:"buyer"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Revenue          decimal.Decimal `json:"revenue"` // platform's cut of this sale
	PaymentReference string          `json:"payment_reference"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	Status           SaleStatus      `json:"status"`
	CheckedIn        bool            `json:"checked_in"`
	CheckInTime      *time.Time      `json:"check_in_time"`
	CreatedAt        time.Time       `json:"created_at"`
}
