package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/httpx"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/validation"
	"github.com/GopkoDev/invoiceForge-sub001/internal/view"
)

type CustomerHandler struct{ DB *gorm.DB }

func NewCustomerHandler(db *gorm.DB) *CustomerHandler { return &CustomerHandler{DB: db} }

type customerReq struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	Country      string `json:"country"`
	TaxID        string `json:"tax_id"`
	Notes        string `json:"notes"`
}

func (c customerReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	validation.MaxLen("name", c.Name, 200, v)
	return v
}

func (c customerReq) apply(m *models.Customer) {
	m.Name = strings.TrimSpace(c.Name)
	m.Contact = c.Contact
	m.Email = strings.TrimSpace(c.Email)
	m.Phone = c.Phone
	m.AddressLine1 = c.AddressLine1
	m.AddressLine2 = c.AddressLine2
	m.PostalCode = c.PostalCode
	m.City = c.City
	m.Country = c.Country
	m.TaxID = c.TaxID
	m.Notes = c.Notes
}

// List: GET /customers – HTML or JSON
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var customers []models.Customer
	if err := h.DB.Where("user_id = ?", uid).Order("name asc").Find(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_customers", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": customers, "total": len(customers)})
		return
	}
	_ = view.Render(w, r, "customers.html", map[string]any{"Customers": customers})
}

// Create: POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req customerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	cust := models.Customer{UserID: uid}
	req.apply(&cust)
	if err := h.DB.Create(&cust).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, cust)
}

// Update: POST /customers/update?id=N
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	cust, ok := h.load(w, r, uid)
	if !ok {
		return
	}
	var req customerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	req.apply(&cust)
	if err := h.DB.Save(&cust).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, cust)
}

// Delete: POST /customers/delete?id=N. Refused while invoices still reference
// the customer.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	cust, ok := h.load(w, r, uid)
	if !ok {
		return
	}
	var invoiceCount int64
	h.DB.Model(&models.Invoice{}).Where("customer_id = ?", cust.ID).Count(&invoiceCount)
	if invoiceCount > 0 {
		httpx.JSONError(w, http.StatusConflict, "customer_has_invoices", map[string]int64{"invoices": invoiceCount})
		return
	}
	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", cust.ID).Delete(&models.CustomPrice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cust).Error
	}); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *CustomerHandler) load(w http.ResponseWriter, r *http.Request, uid uint) (models.Customer, bool) {
	var cust models.Customer
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return cust, false
	}
	if err := h.DB.Where("user_id = ?", uid).First(&cust, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "customer_not_found", nil)
			return cust, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_customer", nil)
		return cust, false
	}
	return cust, true
}
