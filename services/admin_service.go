package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// AdminService covers the platform-operator surface: the fee singleton and
// the monthly rollup views.
type AdminService struct {
	app     core.App
	summary *SummaryService
}

func NewAdminService(app core.App, summary *SummaryService) *AdminService {
	return &AdminService{app: app, summary: summary}
}

// GetPlatformFee returns the current platform fee percentage.
func (s *AdminService) GetPlatformFee() (decimal.Decimal, error) {
	return platformFeePercent(s.app)
}

// SetPlatformFee updates the fee singleton. Existing tickets keep their
// stored final prices; only future computations see the new percentage.
func (s *AdminService) SetPlatformFee(percent decimal.Decimal) (*core.Record, error) {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrFeeOutOfRange
	}

	rec, err := s.app.FindFirstRecordByFilter("platform_fees", "id != ''")
	if err != nil {
		collection, cerr := s.app.FindCollectionByNameOrId("platform_fees")
		if cerr != nil {
			return nil, fmt.Errorf("admin: set platform fee: %w", cerr)
		}
		rec = core.NewRecord(collection)
	}

	value, _ := percent.Round(2).Float64()
	rec.Set("fee_percentage", value)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("admin: set platform fee: %w", err)
	}
	return rec, nil
}

// ListSummaries returns the monthly rollups, newest month first.
func (s *AdminService) ListSummaries() ([]*core.Record, error) {
	return s.summary.List()
}

// RecomputeSummaries rebuilds every monthly rollup from the sale and payout
// history. Used to correct drift after a crash between a write and its
// summary increment.
func (s *AdminService) RecomputeSummaries() error {
	return s.summary.RecomputeAll()
}
