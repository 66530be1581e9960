package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"tickethub/models"
	"tickethub/utils"
)

// platformFeePercent reads the current fee percentage from the platform_fees
// singleton. Callers fetch it once per operation and thread it through, so
// an admin change mid-request never produces a mixed computation.
func platformFeePercent(app core.App) (decimal.Decimal, error) {
	rec, err := app.FindFirstRecordByFilter("platform_fees", "id != ''")
	if err != nil {
		return decimal.Zero, fmt.Errorf("platform fee not configured: %w", err)
	}
	return decimal.NewFromFloat(rec.GetFloat("fee_percentage")), nil
}

// TicketService manages ticket tiers. The buyer-facing final price is always
// recomputed from the base price and the current platform fee, never from a
// previously rounded final price.
type TicketService struct {
	app core.App
}

func NewTicketService(app core.App) *TicketService {
	return &TicketService{app: app}
}

type TicketParams struct {
	Name        string
	Price       decimal.Decimal
	TransferFee bool
	Quantity    int // 0 = unlimited
}

func (s *TicketService) Create(eventID string, p TicketParams) (*core.Record, error) {
	if p.Price.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if p.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	feePercent, err := platformFeePercent(s.app)
	if err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}
	finalPrice, _ := models.ComputeFinalPrice(p.Price, feePercent, p.TransferFee)

	code, err := utils.GenerateCode(5)
	if err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}

	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}

	price, _ := p.Price.Round(2).Float64()
	final, _ := finalPrice.Float64()

	rec := core.NewRecord(collection)
	rec.Set("event", eventID)
	rec.Set("name", p.Name)
	rec.Set("price", price)
	rec.Set("final_price", final)
	rec.Set("transfer_fee", p.TransferFee)
	rec.Set("quantity", p.Quantity)
	rec.Set("sold", 0)
	rec.Set("unique_code", code)

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}
	return rec, nil
}

// Update edits a tier. The quantity cap may never drop below the number of
// tickets already sold, and the final price is recomputed from the base.
func (s *TicketService) Update(ticketID string, p TicketParams) (*core.Record, error) {
	rec, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket: update %s: %w", ticketID, err)
	}

	if p.Price.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if p.Quantity > 0 && p.Quantity < rec.GetInt("sold") {
		return nil, ErrQuantityBelowSold
	}

	feePercent, err := platformFeePercent(s.app)
	if err != nil {
		return nil, fmt.Errorf("ticket: update %s: %w", ticketID, err)
	}
	finalPrice, _ := models.ComputeFinalPrice(p.Price, feePercent, p.TransferFee)

	price, _ := p.Price.Round(2).Float64()
	final, _ := finalPrice.Float64()

	if p.Name != "" {
		rec.Set("name", p.Name)
	}
	rec.Set("price", price)
	rec.Set("final_price", final)
	rec.Set("transfer_fee", p.TransferFee)
	rec.Set("quantity", p.Quantity)

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("ticket: update %s: %w", ticketID, err)
	}
	return rec, nil
}

// ReserveSold bumps the sold counter for a confirmed sale. The guard keeps
// sold within the quantity cap (quantity 0 means unlimited); a zero row
// count means the requested quantity is gone.
func (s *TicketService) ReserveSold(ticketID string, quantity int) error {
	res, err := s.app.DB().NewQuery(`
		UPDATE tickets
		SET sold = sold + {:qty}, updated = {:now}
		WHERE id = {:id} AND (quantity = 0 OR sold + {:qty} <= quantity)
	`).Bind(dbx.Params{
		"id":  ticketID,
		"qty": quantity,
		"now": types.NowDateTime().String(),
	}).Execute()
	if err != nil {
		return fmt.Errorf("ticket: reserve %s: %w", ticketID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ticket: reserve %s: %w", ticketID, err)
	}
	if rows == 0 {
		return ErrSoldOut
	}
	return nil
}

// Available reports whether quantity more tickets can still be sold.
func (s *TicketService) Available(rec *core.Record, quantity int) bool {
	limit := rec.GetInt("quantity")
	return limit == 0 || rec.GetInt("sold")+quantity <= limit
}
