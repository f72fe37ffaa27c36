package editor

import (
	"time"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// Mutations are a closed set of edit kinds instead of free-form partial
// merges. Each kind states exactly which field it touches, and the store owns
// the follow-up work (recomputing line totals), so no caller can forget it.

// FieldEdit mutates one top-level field of the draft.
type FieldEdit interface{ applyField(*FormData) }

type SetNumber struct{ Value string }

func (e SetNumber) applyField(f *FormData) { f.Number = e.Value }

type SetStatus struct{ Value models.InvoiceStatus }

func (e SetStatus) applyField(f *FormData) { f.Status = e.Value }

type SetSenderProfile struct{ ID uint }

func (e SetSenderProfile) applyField(f *FormData) { f.SenderProfileID = e.ID }

type SetBankAccount struct{ ID uint }

func (e SetBankAccount) applyField(f *FormData) { f.BankAccountID = e.ID }

type SetCustomer struct{ ID uint }

func (e SetCustomer) applyField(f *FormData) { f.CustomerID = e.ID }

type SetIssueDate struct{ Value time.Time }

func (e SetIssueDate) applyField(f *FormData) { f.IssueDate = e.Value }

type SetDueDate struct{ Value time.Time }

func (e SetDueDate) applyField(f *FormData) { f.DueDate = e.Value }

type SetCurrency struct{ Value string }

func (e SetCurrency) applyField(f *FormData) { f.Currency = e.Value }

type SetPurchaseOrder struct{ Value string }

func (e SetPurchaseOrder) applyField(f *FormData) { f.PurchaseOrder = e.Value }

type SetPaymentTerms struct{ Value string }

func (e SetPaymentTerms) applyField(f *FormData) { f.PaymentTerms = e.Value }

type SetTaxRate struct{ Value float64 }

func (e SetTaxRate) applyField(f *FormData) { f.TaxRate = e.Value }

type SetDiscount struct{ Value float64 }

func (e SetDiscount) applyField(f *FormData) { f.Discount = e.Value }

type SetShipping struct{ Value float64 }

func (e SetShipping) applyField(f *FormData) { f.Shipping = e.Value }

type SetNotes struct{ Value string }

func (e SetNotes) applyField(f *FormData) { f.Notes = e.Value }

type SetTerms struct{ Value string }

func (e SetTerms) applyField(f *FormData) { f.Terms = e.Value }

// ItemEdit mutates one field of a single line item. The store recomputes the
// line's Total after applying the edits of an UpdateItem call, so quantity and
// price edits never leave a stale total behind.
type ItemEdit interface{ applyItem(*LineItem) }

type SetItemProduct struct{ ID uint }

func (e SetItemProduct) applyItem(it *LineItem) { it.ProductID = e.ID }

type SetItemName struct{ Value string }

func (e SetItemName) applyItem(it *LineItem) { it.ProductName = e.Value }

type SetItemDescription struct{ Value string }

func (e SetItemDescription) applyItem(it *LineItem) { it.Description = e.Value }

type SetItemUnit struct{ Value string }

func (e SetItemUnit) applyItem(it *LineItem) { it.Unit = e.Value }

type SetItemQuantity struct{ Value float64 }

func (e SetItemQuantity) applyItem(it *LineItem) { it.Quantity = e.Value }

type SetItemPrice struct{ Value float64 }

func (e SetItemPrice) applyItem(it *LineItem) { it.Price = e.Value }
