package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

func TestRevenueAndOutstanding(t *testing.T) {
	d := openTestDB(t, "svc_report")
	fx := seedTenant(t, d, "a@test.local")
	tenant := NewInvoiceService(d).ForUser(fx.UserID)

	mk := func(number string, status models.InvoiceStatus, qty float64) {
		form := draftFor(fx)
		form.Number = number
		form.Status = status
		form.TaxRate = 0
		form.Items[0].Quantity = qty
		form.Items[0].Total = qty * form.Items[0].Price
		if _, err := tenant.CreateInvoice(context.Background(), form); err != nil {
			t.Fatal(err)
		}
	}
	mk("P-1", models.InvoiceStatusPaid, 1)    // 600
	mk("P-2", models.InvoiceStatusPaid, 0.5)  // 300
	mk("O-1", models.InvoiceStatusPending, 2) // 1200
	mk("O-2", models.InvoiceStatusOverdue, 1) // 600
	mk("D-1", models.InvoiceStatusDraft, 10)  // ignored everywhere

	rep := NewReportingService(d)
	rev, err := rep.Revenue(fx.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !rev.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("revenue = %s", rev)
	}

	out, err := rep.Outstanding(fx.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !out[models.InvoiceStatusPending].Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("pending = %s", out[models.InvoiceStatusPending])
	}
	if !out[models.InvoiceStatusOverdue].Equal(decimal.NewFromInt(600)) {
		t.Fatalf("overdue = %s", out[models.InvoiceStatusOverdue])
	}

	counts, err := rep.CountByStatus(fx.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.InvoiceStatusPaid] != 2 || counts[models.InvoiceStatusDraft] != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestReportingScopedToTenant(t *testing.T) {
	d := openTestDB(t, "svc_report_scope")
	fxA := seedTenant(t, d, "a@test.local")
	fxB := seedTenant(t, d, "b@test.local")

	form := draftFor(fxA)
	form.Status = models.InvoiceStatusPaid
	if _, err := NewInvoiceService(d).ForUser(fxA.UserID).CreateInvoice(context.Background(), form); err != nil {
		t.Fatal(err)
	}

	rev, err := NewReportingService(d).Revenue(fxB.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !rev.IsZero() {
		t.Fatalf("other tenant revenue = %s", rev)
	}
}
