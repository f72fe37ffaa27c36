package models

import (
	"time"

	"gorm.io/gorm"
)

// Product catalog models
type Product struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;index"`
	User        User   `gorm:"foreignKey:UserID"`
	Name        string `gorm:"not null;index"`
	Description string
	Unit        string  `gorm:"not null;default:'pc'"` // ex: pc, h, kg, day
	UnitPrice   float64 `gorm:"not null"`
	Currency    string  `gorm:"not null;default:'EUR'"`
	// Active=false keeps the product in history but blocks new invoice lines.
	Active    bool           `gorm:"not null;default:true"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomPrice overrides a product's default price for one customer.
type CustomPrice struct {
	ID         uint     `gorm:"primaryKey"`
	UserID     uint     `gorm:"not null;index"`
	ProductID  uint     `gorm:"not null;index:idx_product_customer,unique,priority:1"`
	Product    Product  `gorm:"foreignKey:ProductID"`
	CustomerID uint     `gorm:"not null;index:idx_product_customer,priority:2"`
	Customer   Customer `gorm:"foreignKey:CustomerID"`
	Price      float64  `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
