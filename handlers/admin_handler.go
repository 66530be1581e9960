package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/services"
)

// requireAdmin gates platform-operator endpoints on the is_admin user flag.
func requireAdmin(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.GetBool("is_admin") {
		return apis.NewForbiddenError("Admin access required", nil)
	}
	return nil
}

type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// GetPlatformFee returns the current fee percentage.
func (h *AdminHandler) GetPlatformFee(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	fee, err := h.admin.GetPlatformFee()
	if err != nil {
		return apiError(err, "Failed to read platform fee")
	}

	return e.JSON(http.StatusOK, map[string]any{"fee_percentage": fee})
}

// SetPlatformFee updates the fee percentage for future computations.
func (h *AdminHandler) SetPlatformFee(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var req struct {
		FeePercentage string `json:"fee_percentage"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	percent, err := decimalFromString(req.FeePercentage)
	if err != nil {
		return apis.NewBadRequestError("Invalid fee percentage", err)
	}

	rec, err := h.admin.SetPlatformFee(percent)
	if err != nil {
		return apiError(err, "Failed to update platform fee")
	}

	return e.JSON(http.StatusOK, rec)
}

// ListSummaries returns the monthly rollups.
func (h *AdminHandler) ListSummaries(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	recs, err := h.admin.ListSummaries()
	if err != nil {
		return apiError(err, "Failed to list summaries")
	}

	return e.JSON(http.StatusOK, recs)
}

// RecomputeSummaries rebuilds every monthly rollup from source records.
func (h *AdminHandler) RecomputeSummaries(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	if err := h.admin.RecomputeSummaries(); err != nil {
		return apiError(err, "Failed to recompute summaries")
	}

	return e.NoContent(http.StatusNoContent)
}
