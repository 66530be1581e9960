package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider represents different payment gateway types
type Provider string

const (
	ProviderPaystack Provider = "paystack"
)

// InitializeRequest represents a generic checkout initialization request.
// Amounts are in the gateway's native minor units (e.g. kobo/cents).
type InitializeRequest struct {
	AmountMinor int64          `json:"amount"`
	Email       string         `json:"email"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// InitializeResponse carries the hosted payment page for the buyer.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Customer is the payer snapshot returned by a verify call.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// VerifyResponse represents the gateway's view of a transaction.
type VerifyResponse struct {
	Status      string         `json:"status"`
	Reference   string         `json:"reference"`
	AmountMinor int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Channel     string         `json:"channel"`
	PaidAt      string         `json:"paid_at"`
	Customer    Customer       `json:"customer"`
	Metadata    map[string]any `json:"metadata"`
}

// Succeeded reports whether the gateway settled the transaction.
func (v *VerifyResponse) Succeeded() bool {
	return v.Status == "success"
}

// PaymentGateway defines the common interface for payment providers.
type PaymentGateway interface {
	// Provider returns the gateway provider type
	Provider() Provider

	// Initialize starts a hosted checkout and returns the authorization URL
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)

	// Verify checks the status of a transaction by reference
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
}

// ToMinorUnits converts a major-unit amount to gateway minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts gateway minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
