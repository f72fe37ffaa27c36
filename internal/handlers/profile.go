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

// ProfileHandler manages the user's sender profiles and their bank accounts.
type ProfileHandler struct{ DB *gorm.DB }

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

type profileReq struct {
	BusinessName string `json:"business_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	Country      string `json:"country"`
	TaxID        string `json:"tax_id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	LogoURL      string `json:"logo_url"`
}

func (p profileReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("business_name", p.BusinessName, v)
	validation.MaxLen("business_name", p.BusinessName, 200, v)
	return v
}

func (p profileReq) apply(m *models.SenderProfile) {
	m.BusinessName = strings.TrimSpace(p.BusinessName)
	m.AddressLine1 = p.AddressLine1
	m.AddressLine2 = p.AddressLine2
	m.PostalCode = p.PostalCode
	m.City = p.City
	m.Country = p.Country
	m.TaxID = p.TaxID
	m.Email = strings.TrimSpace(p.Email)
	m.Phone = p.Phone
	m.LogoURL = p.LogoURL
}

// List: GET /profiles – sender profiles with their bank accounts.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var profiles []models.SenderProfile
	if err := h.DB.Where("user_id = ?", uid).Order("business_name asc").Find(&profiles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_profiles", nil)
		return
	}
	var accounts []models.BankAccount
	if err := h.DB.Where("user_id = ?", uid).Order("label asc").Find(&accounts).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_bank_accounts", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"profiles": profiles, "bank_accounts": accounts})
		return
	}
	_ = view.Render(w, r, "profiles.html", map[string]any{"Profiles": profiles, "BankAccounts": accounts})
}

// Create: POST /profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req profileReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	profile := models.SenderProfile{UserID: uid}
	req.apply(&profile)
	if err := h.DB.Create(&profile).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_profile", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

// Update: POST /profiles/update?id=N
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	profile, ok := h.loadProfile(w, r, uid)
	if !ok {
		return
	}
	var req profileReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	req.apply(&profile)
	if err := h.DB.Save(&profile).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_profile", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

// Delete: POST /profiles/delete?id=N. Refused while invoices reference the
// profile.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	profile, ok := h.loadProfile(w, r, uid)
	if !ok {
		return
	}
	var invoiceCount int64
	h.DB.Model(&models.Invoice{}).Where("sender_profile_id = ?", profile.ID).Count(&invoiceCount)
	if invoiceCount > 0 {
		httpx.JSONError(w, http.StatusConflict, "profile_has_invoices", map[string]int64{"invoices": invoiceCount})
		return
	}
	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sender_profile_id = ?", profile.ID).Delete(&models.BankAccount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&profile).Error
	}); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_profile", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type bankAccountReq struct {
	SenderProfileID uint   `json:"sender_profile_id"`
	Label           string `json:"label"`
	BankName        string `json:"bank_name"`
	AccountNumber   string `json:"account_number"`
	BIC             string `json:"bic"`
	Currency        string `json:"currency"`
}

func (b bankAccountReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("label", b.Label, v)
	validation.Required("account_number", b.AccountNumber, v)
	if b.SenderProfileID == 0 {
		v["sender_profile_id"] = "required"
	}
	return v
}

// CreateBankAccount: POST /profiles/bank-accounts
func (h *ProfileHandler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req bankAccountReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	var count int64
	h.DB.Model(&models.SenderProfile{}).Where("id = ? AND user_id = ?", req.SenderProfileID, uid).Count(&count)
	if count == 0 {
		httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	acc := models.BankAccount{
		UserID: uid, SenderProfileID: req.SenderProfileID,
		Label: strings.TrimSpace(req.Label), BankName: req.BankName,
		AccountNumber: strings.TrimSpace(req.AccountNumber), BIC: req.BIC,
		Currency: req.Currency,
	}
	if err := h.DB.Create(&acc).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_bank_account", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, acc)
}

// DeleteBankAccount: POST /profiles/bank-accounts/delete?id=N
func (h *ProfileHandler) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var invoiceCount int64
	h.DB.Model(&models.Invoice{}).Where("bank_account_id = ?", n).Count(&invoiceCount)
	if invoiceCount > 0 {
		httpx.JSONError(w, http.StatusConflict, "bank_account_has_invoices", map[string]int64{"invoices": invoiceCount})
		return
	}
	res := h.DB.Where("id = ? AND user_id = ?", n, uid).Delete(&models.BankAccount{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_bank_account", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "bank_account_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *ProfileHandler) loadProfile(w http.ResponseWriter, r *http.Request, uid uint) (models.SenderProfile, bool) {
	var profile models.SenderProfile
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return profile, false
	}
	if err := h.DB.Where("user_id = ?", uid).First(&profile, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return profile, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_profile", nil)
		return profile, false
	}
	return profile, true
}
