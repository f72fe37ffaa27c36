package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

func postJSON(t *testing.T, h http.HandlerFunc, uid uint, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h(rec, asUser(req, uid))
	return rec
}

func TestProductCreateAndList(t *testing.T) {
	d := openTestDB(t, "h_prod_create")
	fx := seedTenant(t, d, "a@test.local")
	h := NewProductHandler(d)

	rec := postJSON(t, h.Create, fx.UserID, "/products", map[string]any{
		"name": "Workshop", "unit": "h", "unit_price": 150,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Accept", "application/json")
	lrec := httptest.NewRecorder()
	h.List(lrec, asUser(req, fx.UserID))
	var resp struct {
		Items []models.Product `json:"items"`
	}
	if err := json.Unmarshal(lrec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected seeded product plus new one, got %d", len(resp.Items))
	}
}

func TestProductCreateValidation(t *testing.T) {
	d := openTestDB(t, "h_prod_valid")
	fx := seedTenant(t, d, "a@test.local")
	h := NewProductHandler(d)

	rec := postJSON(t, h.Create, fx.UserID, "/products", map[string]any{
		"name": "", "unit": "", "unit_price": -5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Details["name"] != "required" || resp.Details["unit_price"] != "must_not_be_negative" {
		t.Fatalf("details = %+v", resp.Details)
	}
}

func TestProductDeactivateHidesFromDefaultList(t *testing.T) {
	d := openTestDB(t, "h_prod_deact")
	fx := seedTenant(t, d, "a@test.local")
	h := NewProductHandler(d)

	rec := postJSON(t, h.Deactivate, fx.UserID, fmt.Sprintf("/products/deactivate?id=%d", fx.ProductID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", rec.Code, rec.Body.String())
	}

	list := func(url string) int {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("Accept", "application/json")
		lrec := httptest.NewRecorder()
		h.List(lrec, asUser(req, fx.UserID))
		var resp struct {
			Items []models.Product `json:"items"`
		}
		if err := json.Unmarshal(lrec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return len(resp.Items)
	}
	if n := list("/products"); n != 0 {
		t.Fatalf("default list still shows %d products", n)
	}
	if n := list("/products?include=inactive"); n != 1 {
		t.Fatalf("inactive list shows %d products", n)
	}
}

func TestProductScopedToTenant(t *testing.T) {
	d := openTestDB(t, "h_prod_scope")
	fxA := seedTenant(t, d, "a@test.local")
	fxB := seedTenant(t, d, "b@test.local")
	h := NewProductHandler(d)

	rec := postJSON(t, h.Update, fxB.UserID, fmt.Sprintf("/products/update?id=%d", fxA.ProductID), map[string]any{
		"name": "Hijacked", "unit": "h", "unit_price": 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCustomPriceUpsert(t *testing.T) {
	d := openTestDB(t, "h_prod_cp")
	fx := seedTenant(t, d, "a@test.local")
	h := NewProductHandler(d)

	payload := map[string]any{"product_id": fx.ProductID, "customer_id": fx.CustID, "price": 550}
	rec := postJSON(t, h.SetCustomPrice, fx.UserID, "/products/custom-price", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("set: %d %s", rec.Code, rec.Body.String())
	}

	payload["price"] = 500
	rec = postJSON(t, h.SetCustomPrice, fx.UserID, "/products/custom-price", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: %d %s", rec.Code, rec.Body.String())
	}

	var prices []models.CustomPrice
	if err := d.Where("product_id = ?", fx.ProductID).Find(&prices).Error; err != nil {
		t.Fatal(err)
	}
	if len(prices) != 1 || prices[0].Price != 500 {
		t.Fatalf("prices = %+v", prices)
	}
}
