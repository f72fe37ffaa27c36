package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/editor"
	"github.com/GopkoDev/invoiceForge-sub001/internal/httpx"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/pdf"
	"github.com/GopkoDev/invoiceForge-sub001/internal/services"
	"github.com/GopkoDev/invoiceForge-sub001/internal/view"
)

// InvoiceHandler serves the invoice list, the editor page and the save
// endpoint. All routes expect an authenticated user in the request context.
type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

// List: GET /invoices – HTML or JSON
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	tenant := h.Svc.ForUser(uid)

	filter := services.ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Page = n
		}
	}
	invs, total, err := tenant.List(filter)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": total})
		return
	}
	_ = view.Render(w, r, "invoices.html", map[string]any{
		"Invoices": invs, "Total": total, "Query": filter.Query, "Status": filter.Status,
	})
}

// Editor: GET /invoices/edit?id=N – editor page, or the editor data as JSON.
// id=0 (or absent) opens a new draft.
func (h *InvoiceHandler) Editor(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	tenant := h.Svc.ForUser(uid)

	var id uint
	if v := r.URL.Query().Get("id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		id = uint(n)
	}
	data, err := tenant.EditorData(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_editor", nil)
		return
	}
	if httpx.WantsJSON(r) {
		payload := map[string]any{
			"invoice_id":       data.InvoiceID,
			"suggested_number": data.SuggestedNumber,
			"sender_profiles":  data.References.SenderProfiles,
			"bank_accounts":    data.References.BankAccounts,
			"customers":        data.References.Customers,
			"products":         data.References.Products,
			"custom_prices":    data.References.CustomPrices,
		}
		if data.InitialData != nil {
			payload["form"] = formPayload(*data.InitialData)
		}
		httpx.JSON(w, http.StatusOK, payload)
		return
	}
	_ = view.Render(w, r, "editor.html", map[string]any{
		"InvoiceID":       data.InvoiceID,
		"SuggestedNumber": data.SuggestedNumber,
		"References":      data.References,
		"Form":            data.InitialData,
	})
}

type saveItemReq struct {
	ID          string  `json:"id"`
	ProductID   uint    `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

type saveFormReq struct {
	Number          string        `json:"number"`
	Status          string        `json:"status"`
	SenderProfileID uint          `json:"sender_profile_id"`
	BankAccountID   uint          `json:"bank_account_id"`
	CustomerID      uint          `json:"customer_id"`
	IssueDate       string        `json:"issue_date"` // YYYY-MM-DD
	DueDate         string        `json:"due_date"`
	Currency        string        `json:"currency"`
	PurchaseOrder   string        `json:"purchase_order"`
	PaymentTerms    string        `json:"payment_terms"`
	TaxRate         float64       `json:"tax_rate"`
	Discount        float64       `json:"discount"`
	Shipping        float64       `json:"shipping"`
	Notes           string        `json:"notes"`
	Terms           string        `json:"terms"`
	Items           []saveItemReq `json:"items"`
}

type saveReq struct {
	InvoiceID uint `json:"invoice_id"`
	// ConfirmPrune acknowledges the removal of line items whose catalog
	// product was deleted or deactivated since the draft was loaded.
	ConfirmPrune bool        `json:"confirm_prune"`
	Form         saveFormReq `json:"form"`
}

// Save: POST /invoices/save – runs the full validation and save workflow over
// the posted draft. Responses:
//
//	201/200 {invoice_id, created}   draft persisted
//	422 validation_failed           rule failures in details.errors
//	409 stale_items                 resubmit with confirm_prune=true to drop them
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	tenant := h.Svc.ForUser(uid)

	var req saveReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", map[string]string{"error": err.Error()})
		return
	}
	form, err := reqToForm(req.Form)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", map[string]string{"error": err.Error()})
		return
	}

	// reference snapshot for stale detection, same data the editor page loads
	data, err := tenant.EditorData(0)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_editor", nil)
		return
	}
	store := editor.NewStore(data.References, &form, req.InvoiceID, tenant)
	wf := editor.NewWorkflow(store)

	out := wf.BeginSave(r.Context())
	if out.Phase == editor.PhaseConfirm && req.ConfirmPrune {
		out = wf.ConfirmPrune(r.Context())
	}
	switch out.Phase {
	case editor.PhaseBlocked:
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]any{"errors": out.Errors})
	case editor.PhaseConfirm:
		stale := make([]map[string]any, 0, len(out.StaleItems))
		for _, it := range out.StaleItems {
			stale = append(stale, map[string]any{"id": it.Item.ID, "name": it.Item.ProductName, "reason": it.Reason})
		}
		httpx.JSONError(w, http.StatusConflict, "stale_items", map[string]any{"items": stale})
	case editor.PhaseSaved:
		status := http.StatusOK
		if out.Created {
			status = http.StatusCreated
		}
		httpx.JSON(w, status, map[string]any{"invoice_id": store.InvoiceID(), "created": out.Created})
	default:
		switch {
		case errors.Is(out.Err, services.ErrInvalidReference):
			httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", map[string]string{"error": out.Err.Error()})
		case errors.Is(out.Err, services.ErrNotFound):
			httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		default:
			httpx.JSONError(w, http.StatusInternalServerError, "save_failed", nil)
		}
	}
}

// PDF: GET /invoices/pdf?id=N – invoice rendered for download.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	tenant := h.Svc.ForUser(uid)

	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := tenant.Get(uint(n))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	summary := editor.Summary{Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, Total: inv.Total}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	if err := pdf.RenderInvoice(w, inv, summary); err != nil {
		// headers already sent; nothing better to do than log-less abort
		return
	}
}

// Delete: POST /invoices/delete?id=N
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	tenant := h.Svc.ForUser(uid)

	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := tenant.Delete(uint(n)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func reqToForm(req saveFormReq) (editor.FormData, error) {
	form := editor.FormData{
		Number:          strings.TrimSpace(req.Number),
		Status:          models.InvoiceStatus(req.Status),
		SenderProfileID: req.SenderProfileID,
		BankAccountID:   req.BankAccountID,
		CustomerID:      req.CustomerID,
		Currency:        strings.TrimSpace(req.Currency),
		PurchaseOrder:   req.PurchaseOrder,
		PaymentTerms:    req.PaymentTerms,
		TaxRate:         req.TaxRate,
		Discount:        req.Discount,
		Shipping:        req.Shipping,
		Notes:           req.Notes,
		Terms:           req.Terms,
	}
	if form.Status == "" {
		form.Status = models.InvoiceStatusDraft
	}
	if !models.ValidStatus(form.Status) {
		return form, fmt.Errorf("unknown status %q", req.Status)
	}
	var err error
	if req.IssueDate != "" {
		if form.IssueDate, err = time.Parse("2006-01-02", req.IssueDate); err != nil {
			return form, fmt.Errorf("issue_date: %w", err)
		}
	}
	if req.DueDate != "" {
		if form.DueDate, err = time.Parse("2006-01-02", req.DueDate); err != nil {
			return form, fmt.Errorf("due_date: %w", err)
		}
	}
	for _, it := range req.Items {
		form.Items = append(form.Items, editor.LineItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: strings.TrimSpace(it.Name),
			Description: it.Description,
			Unit:        strings.TrimSpace(it.Unit),
			Quantity:    it.Quantity,
			Price:       it.Price,
			// stored redundantly; never trusted from the client
			Total: it.Quantity * it.Price,
		})
	}
	return form, nil
}

func formPayload(f editor.FormData) map[string]any {
	items := make([]map[string]any, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, map[string]any{
			"id": it.ID, "product_id": it.ProductID, "name": it.ProductName,
			"description": it.Description, "unit": it.Unit,
			"quantity": it.Quantity, "price": it.Price, "total": it.Total,
		})
	}
	return map[string]any{
		"number": f.Number, "status": string(f.Status),
		"sender_profile_id": f.SenderProfileID, "bank_account_id": f.BankAccountID,
		"customer_id": f.CustomerID,
		"issue_date":  f.IssueDate.Format("2006-01-02"),
		"due_date":    f.DueDate.Format("2006-01-02"),
		"currency":    f.Currency, "purchase_order": f.PurchaseOrder,
		"payment_terms": f.PaymentTerms, "tax_rate": f.TaxRate,
		"discount": f.Discount, "shipping": f.Shipping,
		"notes": f.Notes, "terms": f.Terms, "items": items,
	}
}
