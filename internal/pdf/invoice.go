package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/GopkoDev/invoiceForge-sub001/internal/editor"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// RenderInvoice writes an A4 PDF of the invoice to w. Totals come from the
// passed summary, not from re-derived arithmetic, so the document always
// matches what the editor showed on save.
func RenderInvoice(w io.Writer, inv models.Invoice, summary editor.Summary) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice "+inv.Number, true)
	doc.AddPage()

	// header
	doc.SetFont("Helvetica", "B", 20)
	doc.Cell(120, 10, "INVOICE")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(70, 10, inv.Number, "", 1, "R", false, 0, "")
	doc.Ln(4)

	// sender and customer blocks side by side
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(95, 6, "From", "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, "Bill To", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	from := addressLines(inv.SenderProfile.BusinessName,
		inv.SenderProfile.AddressLine1, inv.SenderProfile.AddressLine2,
		join(inv.SenderProfile.PostalCode, inv.SenderProfile.City),
		inv.SenderProfile.Country, taxLine(inv.SenderProfile.TaxID))
	to := addressLines(inv.Customer.Name,
		inv.Customer.AddressLine1, inv.Customer.AddressLine2,
		join(inv.Customer.PostalCode, inv.Customer.City),
		inv.Customer.Country, taxLine(inv.Customer.TaxID))
	for i := 0; i < len(from) || i < len(to); i++ {
		doc.CellFormat(95, 5, at(from, i), "", 0, "L", false, 0, "")
		doc.CellFormat(95, 5, at(to, i), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	// meta row
	doc.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Issue date", inv.IssueDate.Format("2006-01-02")},
		{"Due date", inv.DueDate.Format("2006-01-02")},
	}
	if inv.PurchaseOrder != "" {
		meta = append(meta, [2]string{"Purchase order", inv.PurchaseOrder})
	}
	if inv.PaymentTerms != "" {
		meta = append(meta, [2]string{"Payment terms", inv.PaymentTerms})
	}
	for _, m := range meta {
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(35, 5, m[0], "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(155, 5, m[1], "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	// item table
	doc.SetFillColor(235, 235, 235)
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(80, 7, "Item", "1", 0, "L", true, 0, "")
	doc.CellFormat(20, 7, "Unit", "1", 0, "C", true, 0, "")
	doc.CellFormat(25, 7, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 7, "Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")
	doc.SetFont("Helvetica", "", 9)
	for _, it := range inv.Items {
		name := it.ProductName
		if it.Description != "" {
			name += " - " + it.Description
		}
		doc.CellFormat(80, 6, name, "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 6, it.Unit, "1", 0, "C", false, 0, "")
		doc.CellFormat(25, 6, trimFloat(it.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, money(it.Price, inv.Currency), "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 6, money(it.Total, inv.Currency), "1", 1, "R", false, 0, "")
	}
	doc.Ln(2)

	// totals block, right aligned
	totalRow := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(125, 6, "", "", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, label, "", 0, "R", false, 0, "")
		doc.CellFormat(35, 6, money(amount, inv.Currency), "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", summary.Subtotal, false)
	if inv.Discount != 0 {
		totalRow("Discount", -inv.Discount, false)
	}
	if inv.Shipping != 0 {
		totalRow("Shipping", inv.Shipping, false)
	}
	totalRow(fmt.Sprintf("Tax (%s%%)", trimFloat(inv.TaxRate)), summary.TaxAmount, false)
	totalRow("Total", summary.Total, true)
	doc.Ln(6)

	// payment coordinates
	if inv.BankAccount.AccountNumber != "" {
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(190, 6, "Payment details", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		for _, line := range addressLines(inv.BankAccount.BankName,
			"Account: "+inv.BankAccount.AccountNumber, bicLine(inv.BankAccount.BIC)) {
			doc.CellFormat(190, 5, line, "", 1, "L", false, 0, "")
		}
		doc.Ln(3)
	}

	if inv.Notes != "" {
		doc.SetFont("Helvetica", "I", 9)
		doc.MultiCell(190, 5, inv.Notes, "", "L", false)
		doc.Ln(2)
	}
	if inv.Terms != "" {
		doc.SetFont("Helvetica", "", 8)
		doc.MultiCell(190, 4, inv.Terms, "", "L", false)
	}

	return doc.Output(w)
}

func money(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", v, currency)
}

// trimFloat drops trailing zeros so quantities like 1.5 and 2 both print
// naturally.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func addressLines(lines ...string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func join(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func taxLine(taxID string) string {
	if taxID == "" {
		return ""
	}
	return "Tax ID: " + taxID
}

func bicLine(bic string) string {
	if bic == "" {
		return ""
	}
	return "BIC: " + bic
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
