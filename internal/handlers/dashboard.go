package handlers

import (
	"net/http"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/httpx"
	"github.com/GopkoDev/invoiceForge-sub001/internal/middleware"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/services"
	"github.com/GopkoDev/invoiceForge-sub001/internal/view"
)

// DashboardHandler aggregates the tenant's numbers for the landing page after
// login.
type DashboardHandler struct {
	Reports *services.ReportingService
}

func NewDashboardHandler(rep *services.ReportingService) *DashboardHandler {
	return &DashboardHandler{Reports: rep}
}

// Show: GET /dashboard – HTML or JSON
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	revenue, err := h.Reports.Revenue(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}
	outstanding, err := h.Reports.Outstanding(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}
	counts, err := h.Reports.CountByStatus(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"revenue":     revenue,
			"outstanding": outstanding,
			"counts":      counts,
		})
		return
	}
	_ = view.Render(w, r, "dashboard.html", map[string]any{
		"Revenue": revenue.StringFixed(2),
		"Pending": outstanding[models.InvoiceStatusPending].StringFixed(2),
		"Overdue": outstanding[models.InvoiceStatusOverdue].StringFixed(2),
		"Counts":  counts,
		"Flash":   middleware.PopFlash(w, r),
	})
}
