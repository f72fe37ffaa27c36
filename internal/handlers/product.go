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

type ProductHandler struct{ DB *gorm.DB }

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

type productReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Currency    string  `json:"currency"`
}

func (p productReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	validation.Required("unit", p.Unit, v)
	validation.NonNegativeFloat("unit_price", p.UnitPrice, v)
	validation.MaxLen("name", p.Name, 200, v)
	return v
}

// List: GET /products – HTML or JSON. include=inactive adds deactivated rows.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	dbq := h.DB.Where("user_id = ?", uid)
	if r.URL.Query().Get("include") != "inactive" {
		dbq = dbq.Where("active = ?", true)
	}
	var products []models.Product
	if err := dbq.Order("name asc").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
		return
	}
	_ = view.Render(w, r, "products.html", map[string]any{"Products": products})
}

// Create: POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	prod := models.Product{
		UserID: uid, Name: strings.TrimSpace(req.Name), Description: req.Description,
		Unit: strings.TrimSpace(req.Unit), UnitPrice: req.UnitPrice,
		Currency: req.Currency, Active: true,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_product", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, prod)
}

// Update: POST /products/update?id=N
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	prod, ok := h.load(w, r, uid)
	if !ok {
		return
	}
	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	prod.Name = strings.TrimSpace(req.Name)
	prod.Description = req.Description
	prod.Unit = strings.TrimSpace(req.Unit)
	prod.UnitPrice = req.UnitPrice
	if req.Currency != "" {
		prod.Currency = req.Currency
	}
	if err := h.DB.Save(&prod).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
}

// Deactivate: POST /products/deactivate?id=N. The product stays on existing
// invoices; the editor flags lines referencing it as invalid.
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Activate: POST /products/activate?id=N
func (h *ProductHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *ProductHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	prod, ok := h.load(w, r, uid)
	if !ok {
		return
	}
	prod.Active = active
	if err := h.DB.Save(&prod).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
}

// Delete: POST /products/delete?id=N – soft delete; invoice history keeps the
// line item snapshot.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	prod, ok := h.load(w, r, uid)
	if !ok {
		return
	}
	if err := h.DB.Delete(&prod).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type customPriceReq struct {
	ProductID  uint    `json:"product_id"`
	CustomerID uint    `json:"customer_id"`
	Price      float64 `json:"price"`
}

// SetCustomPrice: POST /products/custom-price – upserts the per-customer
// override for one product.
func (h *ProductHandler) SetCustomPrice(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req customPriceReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.NonNegativeFloat("price", req.Price, v)
	if req.ProductID == 0 {
		v["product_id"] = "required"
	}
	if req.CustomerID == 0 {
		v["customer_id"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	// both sides must belong to the tenant
	var count int64
	h.DB.Model(&models.Product{}).Where("id = ? AND user_id = ?", req.ProductID, uid).Count(&count)
	if count == 0 {
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
		return
	}
	h.DB.Model(&models.Customer{}).Where("id = ? AND user_id = ?", req.CustomerID, uid).Count(&count)
	if count == 0 {
		httpx.JSONError(w, http.StatusNotFound, "customer_not_found", nil)
		return
	}
	var cp models.CustomPrice
	err := h.DB.Where("product_id = ? AND customer_id = ?", req.ProductID, req.CustomerID).First(&cp).Error
	switch {
	case err == nil:
		cp.Price = req.Price
		err = h.DB.Save(&cp).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		cp = models.CustomPrice{UserID: uid, ProductID: req.ProductID, CustomerID: req.CustomerID, Price: req.Price}
		err = h.DB.Create(&cp).Error
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_save_custom_price", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, cp)
}

// DeleteCustomPrice: POST /products/custom-price/delete?id=N
func (h *ProductHandler) DeleteCustomPrice(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Where("id = ? AND user_id = ?", n, uid).Delete(&models.CustomPrice{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_custom_price", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "custom_price_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *ProductHandler) load(w http.ResponseWriter, r *http.Request, uid uint) (models.Product, bool) {
	var prod models.Product
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return prod, false
	}
	if err := h.DB.Where("user_id = ?", uid).First(&prod, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
			return prod, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return prod, false
	}
	return prod, true
}
