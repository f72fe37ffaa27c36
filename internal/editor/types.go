package editor

import (
	"time"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// LineItem is one billable row of the draft. ID is assigned by the store when
// the row is added and survives saves, so a line keeps its identity.
type LineItem struct {
	ID string
	// ProductID 0 marks a free-form item that references no catalog product.
	ProductID   uint
	ProductName string
	Description string
	Unit        string
	Quantity    float64
	Price       float64
	// Total is kept redundantly and always equals Quantity * Price; the store
	// recomputes it synchronously after every item mutation.
	Total float64
}

// FormData is the in-memory draft of an invoice being edited.
type FormData struct {
	Number          string
	Status          models.InvoiceStatus
	SenderProfileID uint
	BankAccountID   uint
	CustomerID      uint
	IssueDate       time.Time
	DueDate         time.Time
	Currency        string
	PurchaseOrder   string
	PaymentTerms    string
	Items           []LineItem
	TaxRate         float64 // percent, 0..100
	Discount        float64 // flat amount
	Shipping        float64 // flat amount
	Notes           string
	Terms           string
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// the store's item slice.
func (f FormData) Clone() FormData {
	c := f
	c.Items = make([]LineItem, len(f.Items))
	copy(c.Items, f.Items)
	return c
}

// Summary is the derived totals view of a draft. Never stored; recomputed on
// every read.
type Summary struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// InvalidItem flags a line whose referenced catalog product was deleted or
// deactivated after the line was added. Computed transiently, never persisted.
type InvalidItem struct {
	Item   LineItem
	Reason string
}

// References is the read-only reference data loaded once at editor start.
// Selections are resolved against these lists, not re-fetched per edit.
type References struct {
	SenderProfiles []models.SenderProfile
	BankAccounts   []models.BankAccount
	Customers      []models.Customer
	Products       []models.Product
	CustomPrices   []models.CustomPrice
}

// ProductChoice annotates a catalog product with the custom price applicable
// to the currently selected customer, if any.
type ProductChoice struct {
	Product        models.Product
	HasCustomPrice bool
	CustomPrice    float64
}
