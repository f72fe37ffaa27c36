package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/db"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/services"
)

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(d); err != nil {
		t.Fatal(err)
	}
	return d
}

type fixture struct {
	UserID    uint
	ProfileID uint
	BankID    uint
	CustID    uint
	ProductID uint
}

func seedTenant(t *testing.T, d *gorm.DB, email string) fixture {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	if err := d.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	profile := models.SenderProfile{UserID: user.ID, BusinessName: "Acme Consulting"}
	bank := models.BankAccount{UserID: user.ID, Label: "EUR main", AccountNumber: "DE00", Currency: "EUR"}
	cust := models.Customer{UserID: user.ID, Name: "Globex"}
	prod := models.Product{UserID: user.ID, Name: "Consulting day", Unit: "day", UnitPrice: 600, Active: true}
	if err := d.Create(&profile).Error; err != nil {
		t.Fatal(err)
	}
	bank.SenderProfileID = profile.ID
	for _, m := range []any{&bank, &cust, &prod} {
		if err := d.Create(m).Error; err != nil {
			t.Fatal(err)
		}
	}
	return fixture{UserID: user.ID, ProfileID: profile.ID, BankID: bank.ID, CustID: cust.ID, ProductID: prod.ID}
}

// asUser issues r with the user injected the way auth.Middleware would.
func asUser(r *http.Request, uid uint) *http.Request {
	return r.WithContext(auth.WithUserID(context.Background(), uid))
}

func savePayload(fx fixture) map[string]any {
	return map[string]any{
		"invoice_id": 0,
		"form": map[string]any{
			"number":            "INV-2026-0001",
			"status":            "draft",
			"sender_profile_id": fx.ProfileID,
			"bank_account_id":   fx.BankID,
			"customer_id":       fx.CustID,
			"issue_date":        "2026-03-01",
			"due_date":          "2026-03-31",
			"currency":          "EUR",
			"tax_rate":          10,
			"items": []map[string]any{
				{"id": "itm-1", "product_id": fx.ProductID, "name": "Consulting day", "unit": "day", "quantity": 1, "price": 100},
			},
		},
	}
}

func postSave(t *testing.T, h *InvoiceHandler, uid uint, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/invoices/save", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Save(rec, asUser(req, uid))
	return rec
}

func TestSaveCreatesInvoice(t *testing.T) {
	d := openTestDB(t, "h_save_create")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	rec := postSave(t, h, fx.UserID, savePayload(fx))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		InvoiceID uint `json:"invoice_id"`
		Created   bool `json:"created"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.InvoiceID == 0 || !resp.Created {
		t.Fatalf("resp = %+v", resp)
	}

	// totals snapshot: 100 subtotal + 10% tax
	var inv models.Invoice
	if err := d.First(&inv, resp.InvoiceID).Error; err != nil {
		t.Fatal(err)
	}
	if inv.Total != 110 {
		t.Fatalf("total = %v", inv.Total)
	}
}

func TestSaveValidationBlocked(t *testing.T) {
	d := openTestDB(t, "h_save_blocked")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	payload := savePayload(fx)
	form := payload["form"].(map[string]any)
	form["number"] = ""
	form["items"] = []map[string]any{}

	rec := postSave(t, h, fx.UserID, payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Errors []string `json:"errors"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "validation_failed" || len(resp.Details.Errors) == 0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSaveStaleItemsConfirmFlow(t *testing.T) {
	d := openTestDB(t, "h_save_stale")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	// deactivate the product the draft references
	if err := d.Model(&models.Product{}).Where("id = ?", fx.ProductID).Update("active", false).Error; err != nil {
		t.Fatal(err)
	}

	payload := savePayload(fx)
	form := payload["form"].(map[string]any)
	// a second, free-form line survives the prune and keeps the draft valid
	form["items"] = append(form["items"].([]map[string]any),
		map[string]any{"id": "itm-2", "name": "Travel", "unit": "pc", "quantity": 1, "price": 80})

	rec := postSave(t, h, fx.UserID, payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("first save: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var conflict struct {
		Error   string `json:"error"`
		Details struct {
			Items []struct {
				ID     string `json:"id"`
				Reason string `json:"reason"`
			} `json:"items"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatal(err)
	}
	if conflict.Error != "stale_items" || len(conflict.Details.Items) != 1 || conflict.Details.Items[0].ID != "itm-1" {
		t.Fatalf("conflict = %+v", conflict)
	}

	payload["confirm_prune"] = true
	rec = postSave(t, h, fx.UserID, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirmed save: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		InvoiceID uint `json:"invoice_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var items []models.InvoiceLineItem
	if err := d.Where("invoice_id = ?", resp.InvoiceID).Find(&items).Error; err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "itm-2" {
		t.Fatalf("stale line not pruned: %+v", items)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	d := openTestDB(t, "h_save_update")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	rec := postSave(t, h, fx.UserID, savePayload(fx))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		InvoiceID uint `json:"invoice_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	payload := savePayload(fx)
	payload["invoice_id"] = created.InvoiceID
	form := payload["form"].(map[string]any)
	form["tax_rate"] = 0

	rec = postSave(t, h, fx.UserID, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var inv models.Invoice
	d.First(&inv, created.InvoiceID)
	if inv.Total != 100 {
		t.Fatalf("total after update = %v", inv.Total)
	}
}

func TestEditorDataNotFound(t *testing.T) {
	d := openTestDB(t, "h_editor_404")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	req := httptest.NewRequest(http.MethodGet, "/invoices/edit?id=999", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Editor(rec, asUser(req, fx.UserID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestEditorDataNewDraftSuggestsNumber(t *testing.T) {
	d := openTestDB(t, "h_editor_new")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	req := httptest.NewRequest(http.MethodGet, "/invoices/edit", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Editor(rec, asUser(req, fx.UserID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SuggestedNumber string `json:"suggested_number"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SuggestedNumber == "" {
		t.Fatal("expected a suggested number for a new draft")
	}
}

func TestPDFDownload(t *testing.T) {
	d := openTestDB(t, "h_pdf")
	fx := seedTenant(t, d, "a@test.local")
	h := NewInvoiceHandler(d, services.NewInvoiceService(d))

	rec := postSave(t, h, fx.UserID, savePayload(fx))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var created struct {
		InvoiceID uint `json:"invoice_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/invoices/pdf?id=%d", created.InvoiceID), nil)
	rec = httptest.NewRecorder()
	h.PDF(rec, asUser(req, fx.UserID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF document")
	}
}
