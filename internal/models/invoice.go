package models

import "time"

// Invoice status lifecycle
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known invoice statuses.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoicing models
type Invoice struct {
	ID              uint          `gorm:"primaryKey"`
	UserID          uint          `gorm:"not null;index:idx_user_number,priority:1"`
	Number          string        `gorm:"not null;index:idx_user_number,unique,priority:2"`
	Status          InvoiceStatus `gorm:"not null;default:'draft'"`
	SenderProfileID uint          `gorm:"not null"`
	SenderProfile   SenderProfile `gorm:"foreignKey:SenderProfileID"`
	BankAccountID   uint          `gorm:"not null"`
	BankAccount     BankAccount   `gorm:"foreignKey:BankAccountID"`
	CustomerID      uint          `gorm:"not null;index"`
	Customer        Customer      `gorm:"foreignKey:CustomerID"`
	IssueDate       time.Time     `gorm:"not null"`
	DueDate         time.Time     `gorm:"not null"`
	Currency        string        `gorm:"not null;default:'EUR'"`
	PurchaseOrder   string
	PaymentTerms    string
	Items           []InvoiceLineItem `gorm:"foreignKey:InvoiceID"`
	TaxRate         float64           // percent, 0..100
	Discount        float64           // flat amount
	Shipping        float64           // flat amount
	Notes           string
	Terms           string
	// Totals snapshot, recomputed through the totals engine on every save.
	// List and reporting views read these instead of re-summing items.
	Subtotal  float64
	TaxAmount float64
	Total     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceLineItem keeps the string UUID assigned by the editor when the row
// was first added, so a line keeps its identity across saves.
type InvoiceLineItem struct {
	ID        string `gorm:"primaryKey;size:36"`
	InvoiceID uint   `gorm:"not null;index"`
	// ProductID 0 marks a free-form item with no catalog reference.
	ProductID   uint
	ProductName string `gorm:"not null"`
	Description string
	Unit        string  `gorm:"not null"`
	Quantity    float64 `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	// Total is stored redundantly (= Quantity * Price) for display snapshots.
	Total    float64 `gorm:"not null"`
	Position int     `gorm:"not null"` // preserves item order on the invoice
}
