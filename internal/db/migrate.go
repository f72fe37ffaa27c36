package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// Connect opens the database per DB_DRIVER and DATABASE_DSN. Postgres
// connections are retried; sqlite is immediate (dev and tests).
func Connect() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	if strings.EqualFold(os.Getenv("DB_DRIVER"), "sqlite") {
		if dsn == "" {
			dsn = "file:invoiceforge.db?_fk=1"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	}

	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty; set it or use DB_DRIVER=sqlite")
	}
	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	return db, nil
}

// ConnectAndMigrate connects, migrates the schema and optionally seeds demo
// data (DB_SEED=1). With MIGRATIONS=1 the SQL migrations in ./migrations run
// through golang-migrate; otherwise AutoMigrate covers the dev path.
func ConnectAndMigrate() (*gorm.DB, error) {
	db, err := Connect()
	if err != nil {
		return nil, err
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	fmt.Println("[DB] Using DSN:", MaskDSN(GetNormalizedDSN()))

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(GetNormalizedDSN()); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"users", "sender_profiles", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// AutoMigrate creates or updates all application tables.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{}, &models.SenderProfile{}, &models.BankAccount{},
		&models.Customer{}, &models.Product{}, &models.CustomPrice{},
		&models.Invoice{}, &models.InvoiceLineItem{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// seed creates a demo tenant for development. Idempotent: keyed on the demo
// user's email.
func seed(db *gorm.DB) {
	var existing models.User
	if err := db.Where("email = ?", "demo@invoiceforge.local").First(&existing).Error; err == nil {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	user := models.User{Email: "demo@invoiceforge.local", Password: string(hash), Name: "Demo User"}
	if err := db.Create(&user).Error; err != nil {
		return
	}
	profile := models.SenderProfile{UserID: user.ID, BusinessName: "Demo Studio", AddressLine1: "1 Demo Street", PostalCode: "75001", City: "Paris", Country: "FR", Email: "billing@demo.studio"}
	db.Create(&profile)
	account := models.BankAccount{UserID: user.ID, SenderProfileID: profile.ID, Label: "EUR main", BankName: "Demo Bank", AccountNumber: "FR7630001007941234567890185", BIC: "DEMOFRPP", Currency: "EUR"}
	db.Create(&account)
	customer := models.Customer{UserID: user.ID, Name: "Globex Corp", Email: "ap@globex.example", City: "Lyon", Country: "FR"}
	db.Create(&customer)
	products := []models.Product{
		{UserID: user.ID, Name: "Consulting day", Unit: "day", UnitPrice: 600, Currency: "EUR", Active: true},
		{UserID: user.ID, Name: "Support hour", Unit: "h", UnitPrice: 90, Currency: "EUR", Active: true},
	}
	for i := range products {
		db.Create(&products[i])
	}
	if len(products) > 0 && products[0].ID != 0 {
		db.Create(&models.CustomPrice{UserID: user.ID, ProductID: products[0].ID, CustomerID: customer.ID, Price: 550})
	}
}

// runSQLMigrations executes migrations in ./migrations using the file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
