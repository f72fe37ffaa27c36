package models

import "time"

// Customer entity
type Customer struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	User         User   `gorm:"foreignKey:UserID"`
	Name         string `gorm:"not null;index"` // company or person name
	Contact      string // main contact person
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	PostalCode   string
	City         string
	Country      string
	TaxID        string `gorm:"index"`
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
