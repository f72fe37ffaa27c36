package main

// Helper: go run ./cmd/server -backfill-totals
// Recomputes the stored totals snapshot of every invoice from its line items.
// Needed after a tax rule fix or a manual data repair.

import (
	"flag"
	"log"

	"github.com/GopkoDev/invoiceForge-sub001/internal/db"
	"github.com/GopkoDev/invoiceForge-sub001/internal/editor"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

var backfillTotalsFlag = flag.Bool("backfill-totals", false, "Recompute invoice totals snapshots and exit")

func runBackfillTotals() {
	conn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	var invoices []models.Invoice
	if err := conn.Preload("Items").Find(&invoices).Error; err != nil {
		log.Fatalf("list invoices: %v", err)
	}
	updated := 0
	for _, inv := range invoices {
		form := editor.FormData{TaxRate: inv.TaxRate, Discount: inv.Discount, Shipping: inv.Shipping}
		for _, it := range inv.Items {
			form.Items = append(form.Items, editor.LineItem{Quantity: it.Quantity, Price: it.Price, Total: it.Quantity * it.Price})
		}
		s := editor.Summarize(form)
		if s.Subtotal == inv.Subtotal && s.TaxAmount == inv.TaxAmount && s.Total == inv.Total {
			continue
		}
		err := conn.Model(&models.Invoice{}).Where("id = ?", inv.ID).
			Updates(map[string]any{"subtotal": s.Subtotal, "tax_amount": s.TaxAmount, "total": s.Total}).Error
		if err == nil {
			updated++
		}
	}
	log.Printf("Backfill done: %d updated", updated)
}
