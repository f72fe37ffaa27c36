package models

import "time"

// SenderProfile is one of the user's own business identities: the issuing
// entity printed on an invoice. A user may keep several (e.g. two companies).
type SenderProfile struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	User         User   `gorm:"foreignKey:UserID"`
	BusinessName string `gorm:"not null;index"`
	AddressLine1 string
	AddressLine2 string
	PostalCode   string
	City         string
	Country      string
	TaxID        string `gorm:"index"` // VAT / company registration number
	Email        string
	Phone        string
	LogoURL      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BankAccount holds payment coordinates shown on invoices. Accounts belong to
// a sender profile; the editor UI filters choices by the selected profile.
type BankAccount struct {
	ID              uint          `gorm:"primaryKey"`
	UserID          uint          `gorm:"not null;index"`
	SenderProfileID uint          `gorm:"not null;index"`
	SenderProfile   SenderProfile `gorm:"foreignKey:SenderProfileID"`
	Label           string        `gorm:"not null"` // ex: "EUR main", "USD ops"
	BankName        string
	AccountNumber   string `gorm:"not null"` // IBAN or local account number
	BIC             string
	Currency        string `gorm:"not null;default:'EUR'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
