package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/db"
	"github.com/GopkoDev/invoiceForge-sub001/internal/editor"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
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

// seedTenant creates a user with the reference rows every invoice needs and
// returns the created ids.
type tenantFixture struct {
	UserID    uint
	ProfileID uint
	BankID    uint
	CustID    uint
	ProductID uint
}

func seedTenant(t *testing.T, d *gorm.DB, email string) tenantFixture {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	if err := d.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	profile := models.SenderProfile{UserID: user.ID, BusinessName: "Acme Consulting"}
	if err := d.Create(&profile).Error; err != nil {
		t.Fatal(err)
	}
	bank := models.BankAccount{UserID: user.ID, SenderProfileID: profile.ID, Label: "EUR main", AccountNumber: "DE00 1234", Currency: "EUR"}
	if err := d.Create(&bank).Error; err != nil {
		t.Fatal(err)
	}
	cust := models.Customer{UserID: user.ID, Name: "Globex"}
	if err := d.Create(&cust).Error; err != nil {
		t.Fatal(err)
	}
	prod := models.Product{UserID: user.ID, Name: "Consulting day", Unit: "day", UnitPrice: 600, Active: true}
	if err := d.Create(&prod).Error; err != nil {
		t.Fatal(err)
	}
	return tenantFixture{UserID: user.ID, ProfileID: profile.ID, BankID: bank.ID, CustID: cust.ID, ProductID: prod.ID}
}

func draftFor(fx tenantFixture) editor.FormData {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return editor.FormData{
		Number:          "INV-2026-0001",
		Status:          models.InvoiceStatusDraft,
		SenderProfileID: fx.ProfileID,
		BankAccountID:   fx.BankID,
		CustomerID:      fx.CustID,
		IssueDate:       now,
		DueDate:         now.AddDate(0, 0, 30),
		Currency:        "EUR",
		TaxRate:         20,
		Items: []editor.LineItem{
			{ID: "itm-1", ProductID: fx.ProductID, ProductName: "Consulting day", Unit: "day", Quantity: 2, Price: 600, Total: 1200},
		},
	}
}

func TestCreateAndReloadInvoice(t *testing.T) {
	d := openTestDB(t, "svc_create")
	fx := seedTenant(t, d, "a@test.local")
	tenant := NewInvoiceService(d).ForUser(fx.UserID)

	id, err := tenant.CreateInvoice(context.Background(), draftFor(fx))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	data, err := tenant.EditorData(id)
	if err != nil {
		t.Fatalf("editor data: %v", err)
	}
	if data.InitialData == nil {
		t.Fatal("expected initial form data")
	}
	form := *data.InitialData
	if form.Number != "INV-2026-0001" {
		t.Fatalf("number = %q", form.Number)
	}
	if len(form.Items) != 1 || form.Items[0].ID != "itm-1" {
		t.Fatalf("items not round-tripped: %+v", form.Items)
	}

	// totals snapshot recomputed on save: 1200 + 20% tax
	var inv models.Invoice
	if err := d.First(&inv, id).Error; err != nil {
		t.Fatal(err)
	}
	if inv.Subtotal != 1200 || inv.TaxAmount != 240 || inv.Total != 1440 {
		t.Fatalf("snapshot = %v/%v/%v", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
}

func TestUpdateInvoiceReplacesItems(t *testing.T) {
	d := openTestDB(t, "svc_update")
	fx := seedTenant(t, d, "a@test.local")
	tenant := NewInvoiceService(d).ForUser(fx.UserID)

	id, err := tenant.CreateInvoice(context.Background(), draftFor(fx))
	if err != nil {
		t.Fatal(err)
	}

	form := draftFor(fx)
	form.Items = []editor.LineItem{
		{ID: "itm-2", ProductName: "Travel", Unit: "pc", Quantity: 1, Price: 80, Total: 80},
	}
	form.TaxRate = 0
	if err := tenant.UpdateInvoice(context.Background(), id, form); err != nil {
		t.Fatalf("update: %v", err)
	}

	var items []models.InvoiceLineItem
	if err := d.Where("invoice_id = ?", id).Find(&items).Error; err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "itm-2" {
		t.Fatalf("old items not replaced: %+v", items)
	}
	var inv models.Invoice
	d.First(&inv, id)
	if inv.Total != 80 {
		t.Fatalf("total = %v", inv.Total)
	}
}

func TestTenantScoping(t *testing.T) {
	d := openTestDB(t, "svc_scope")
	fxA := seedTenant(t, d, "a@test.local")
	fxB := seedTenant(t, d, "b@test.local")
	svc := NewInvoiceService(d)

	id, err := svc.ForUser(fxA.UserID).CreateInvoice(context.Background(), draftFor(fxA))
	if err != nil {
		t.Fatal(err)
	}

	other := svc.ForUser(fxB.UserID)
	if _, err := other.EditorData(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign editor data: err = %v", err)
	}
	if _, err := other.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: err = %v", err)
	}
	if err := other.UpdateInvoice(context.Background(), id, draftFor(fxB)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: err = %v", err)
	}
	if err := other.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: err = %v", err)
	}
}

func TestCreateRejectsForeignReferences(t *testing.T) {
	d := openTestDB(t, "svc_refs")
	fxA := seedTenant(t, d, "a@test.local")
	fxB := seedTenant(t, d, "b@test.local")

	form := draftFor(fxA)
	form.CustomerID = fxB.CustID // belongs to the other tenant
	_, err := NewInvoiceService(d).ForUser(fxA.UserID).CreateInvoice(context.Background(), form)
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateAssignsNumberWhenEmpty(t *testing.T) {
	d := openTestDB(t, "svc_number")
	fx := seedTenant(t, d, "a@test.local")
	tenant := NewInvoiceService(d).ForUser(fx.UserID)

	form := draftFor(fx)
	form.Number = ""
	id, err := tenant.CreateInvoice(context.Background(), form)
	if err != nil {
		t.Fatal(err)
	}
	var inv models.Invoice
	d.First(&inv, id)
	want := fmt.Sprintf("INV-%d-0001", time.Now().Year())
	if inv.Number != want {
		t.Fatalf("number = %q, want %q", inv.Number, want)
	}

	// next suggestion skips the taken sequence
	if got := tenant.NextNumber(); got != fmt.Sprintf("INV-%d-0002", time.Now().Year()) {
		t.Fatalf("next number = %q", got)
	}
}

func TestListFilterAndPaging(t *testing.T) {
	d := openTestDB(t, "svc_list")
	fx := seedTenant(t, d, "a@test.local")
	tenant := NewInvoiceService(d).ForUser(fx.UserID)

	for i := 0; i < 5; i++ {
		form := draftFor(fx)
		form.Number = fmt.Sprintf("INV-2026-%04d", i+1)
		if i%2 == 0 {
			form.Status = models.InvoiceStatusPaid
		}
		if _, err := tenant.CreateInvoice(context.Background(), form); err != nil {
			t.Fatal(err)
		}
	}

	paid, total, err := tenant.List(ListFilter{Status: "paid"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(paid) != 3 {
		t.Fatalf("paid: total=%d len=%d", total, len(paid))
	}
	for _, inv := range paid {
		if inv.Customer.Name != "Globex" {
			t.Fatalf("customer not preloaded: %+v", inv.Customer)
		}
	}

	byNumber, total, err := tenant.List(ListFilter{Query: "0003"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || byNumber[0].Number != "INV-2026-0003" {
		t.Fatalf("query match: total=%d got=%+v", total, byNumber)
	}

	page2, total, err := tenant.List(ListFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page2) != 2 {
		t.Fatalf("page 2: total=%d len=%d", total, len(page2))
	}
	// newest first: page 2 of limit 2 holds the 3rd and 2nd created
	if page2[0].Number != "INV-2026-0003" {
		t.Fatalf("page order: %q", page2[0].Number)
	}
}
