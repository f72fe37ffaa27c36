package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/editor"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

var (
	// ErrNotFound covers both a missing id and an id owned by another tenant;
	// callers must not be able to tell the two apart.
	ErrNotFound = errors.New("invoice not found")
	// ErrInvalidReference marks a draft pointing at a sender profile, bank
	// account or customer that does not belong to the tenant.
	ErrInvalidReference = errors.New("referenced entity not found")
)

// InvoiceService owns invoice persistence. All reads and writes are scoped to
// one tenant through ForUser.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{db: db} }

// ForUser returns a tenant-scoped view. The result implements
// editor.Persister, so it can be handed straight to an editor store.
func (s *InvoiceService) ForUser(userID uint) *TenantInvoices {
	return &TenantInvoices{db: s.db, userID: userID}
}

// TenantInvoices is the per-tenant persistence collaborator of the invoice
// editor.
type TenantInvoices struct {
	db     *gorm.DB
	userID uint
}

// EditorData is the read-only snapshot that hydrates a new editor session.
type EditorData struct {
	References  editor.References
	InitialData *editor.FormData
	InvoiceID   uint
	// SuggestedNumber prefills the number field of a new invoice; the user
	// may still edit it.
	SuggestedNumber string
}

// EditorData loads the reference lists and, when invoiceID is non-zero, the
// invoice draft. A missing or foreign invoice id is fatal for the editor page
// and reported as ErrNotFound.
func (t *TenantInvoices) EditorData(invoiceID uint) (EditorData, error) {
	var data EditorData
	scoped := t.db.Where("user_id = ?", t.userID)
	if err := scoped.Order("business_name asc").Find(&data.References.SenderProfiles).Error; err != nil {
		return data, err
	}
	if err := t.db.Where("user_id = ?", t.userID).Order("label asc").Find(&data.References.BankAccounts).Error; err != nil {
		return data, err
	}
	if err := t.db.Where("user_id = ?", t.userID).Order("name asc").Find(&data.References.Customers).Error; err != nil {
		return data, err
	}
	// inactive products stay in the list so existing lines can be flagged
	// instead of silently losing their reference; soft-deleted ones drop out
	if err := t.db.Where("user_id = ?", t.userID).Order("name asc").Find(&data.References.Products).Error; err != nil {
		return data, err
	}
	if err := t.db.Where("user_id = ?", t.userID).Find(&data.References.CustomPrices).Error; err != nil {
		return data, err
	}

	if invoiceID == 0 {
		data.SuggestedNumber = t.NextNumber()
		return data, nil
	}
	var inv models.Invoice
	err := t.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("user_id = ?", t.userID).First(&inv, invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return data, ErrNotFound
		}
		return data, err
	}
	form := modelToForm(inv)
	data.InitialData = &form
	data.InvoiceID = inv.ID
	return data, nil
}

// Get loads one invoice with all relations, for the PDF export and detail
// views.
func (t *TenantInvoices) Get(invoiceID uint) (models.Invoice, error) {
	var inv models.Invoice
	err := t.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("SenderProfile").Preload("BankAccount").Preload("Customer").
		Where("user_id = ?", t.userID).First(&inv, invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return inv, ErrNotFound
	}
	return inv, err
}

// CreateInvoice persists a new invoice. Part of editor.Persister. An empty
// number receives the server-assigned default.
func (t *TenantInvoices) CreateInvoice(ctx context.Context, form editor.FormData) (uint, error) {
	if err := t.checkReferences(form); err != nil {
		return 0, err
	}
	if strings.TrimSpace(form.Number) == "" {
		form.Number = t.NextNumber()
	}
	inv := t.formToModel(form)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := inv.Items
		inv.Items = nil
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inv.ID, nil
}

// UpdateInvoice replaces the stored invoice with the draft. Part of
// editor.Persister. Line items are rewritten wholesale; their ids are stable
// across saves so history keeps line identity.
func (t *TenantInvoices) UpdateInvoice(ctx context.Context, id uint, form editor.FormData) error {
	if err := t.checkReferences(form); err != nil {
		return err
	}
	var existing models.Invoice
	if err := t.db.Where("user_id = ?", t.userID).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	inv := t.formToModel(form)
	inv.ID = existing.ID
	inv.CreatedAt = existing.CreatedAt
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := inv.Items
		inv.Items = nil
		if err := tx.Save(&inv).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an invoice and its items.
func (t *TenantInvoices) Delete(invoiceID uint) error {
	var inv models.Invoice
	if err := t.db.Where("user_id = ?", t.userID).First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
}

// ListFilter narrows and pages the invoice list.
type ListFilter struct {
	Status string
	Query  string // matched against the invoice number
	Page   int
	Limit  int
}

var unsafeQueryChars = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

// List returns one page of the tenant's invoices, newest first, with the
// customer preloaded for display.
func (t *TenantInvoices) List(f ListFilter) ([]models.Invoice, int64, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if f.Page > 1 {
		offset = (f.Page - 1) * limit
	}
	dbq := t.db.Where("user_id = ?", t.userID)
	if f.Status != "" && models.ValidStatus(models.InvoiceStatus(f.Status)) {
		dbq = dbq.Where("status = ?", f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		safe := unsafeQueryChars.ReplaceAllString(q, "")
		dbq = dbq.Where("lower(number) LIKE ?", "%"+strings.ToLower(safe)+"%")
	}
	var total int64
	if err := dbq.Model(&models.Invoice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invs []models.Invoice
	err := dbq.Preload("Customer").Order("id desc").Limit(limit).Offset(offset).Find(&invs).Error
	return invs, total, err
}

// NextNumber produces the server-assigned default invoice number,
// INV-<year>-<seq>, unique per tenant.
func (t *TenantInvoices) NextNumber() string {
	year := time.Now().Year()
	prefix := fmt.Sprintf("INV-%d-", year)
	var count int64
	t.db.Model(&models.Invoice{}).Where("user_id = ? AND number LIKE ?", t.userID, prefix+"%").Count(&count)
	for seq := count + 1; ; seq++ {
		candidate := fmt.Sprintf("%s%04d", prefix, seq)
		var exists int64
		t.db.Model(&models.Invoice{}).Where("user_id = ? AND number = ?", t.userID, candidate).Count(&exists)
		if exists == 0 {
			return candidate
		}
	}
}

func (t *TenantInvoices) checkReferences(form editor.FormData) error {
	checks := []struct {
		model any
		id    uint
		name  string
	}{
		{&models.SenderProfile{}, form.SenderProfileID, "sender profile"},
		{&models.BankAccount{}, form.BankAccountID, "bank account"},
		{&models.Customer{}, form.CustomerID, "customer"},
	}
	for _, c := range checks {
		var count int64
		if err := t.db.Model(c.model).Where("id = ? AND user_id = ?", c.id, t.userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s %d", ErrInvalidReference, c.name, c.id)
		}
	}
	return nil
}

// formToModel maps a draft to the storage model, recomputing the totals
// snapshot through the totals engine. Items missing an id (imported drafts)
// get one assigned here.
func (t *TenantInvoices) formToModel(form editor.FormData) models.Invoice {
	summary := editor.Summarize(form)
	inv := models.Invoice{
		UserID:          t.userID,
		Number:          form.Number,
		Status:          form.Status,
		SenderProfileID: form.SenderProfileID,
		BankAccountID:   form.BankAccountID,
		CustomerID:      form.CustomerID,
		IssueDate:       form.IssueDate,
		DueDate:         form.DueDate,
		Currency:        form.Currency,
		PurchaseOrder:   form.PurchaseOrder,
		PaymentTerms:    form.PaymentTerms,
		TaxRate:         form.TaxRate,
		Discount:        form.Discount,
		Shipping:        form.Shipping,
		Notes:           form.Notes,
		Terms:           form.Terms,
		Subtotal:        summary.Subtotal,
		TaxAmount:       summary.TaxAmount,
		Total:           summary.Total,
	}
	for i, it := range form.Items {
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		inv.Items = append(inv.Items, models.InvoiceLineItem{
			ID:          id,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Total:       it.Total,
			Position:    i,
		})
	}
	return inv
}

func modelToForm(inv models.Invoice) editor.FormData {
	form := editor.FormData{
		Number:          inv.Number,
		Status:          inv.Status,
		SenderProfileID: inv.SenderProfileID,
		BankAccountID:   inv.BankAccountID,
		CustomerID:      inv.CustomerID,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Currency:        inv.Currency,
		PurchaseOrder:   inv.PurchaseOrder,
		PaymentTerms:    inv.PaymentTerms,
		TaxRate:         inv.TaxRate,
		Discount:        inv.Discount,
		Shipping:        inv.Shipping,
		Notes:           inv.Notes,
		Terms:           inv.Terms,
		Items:           make([]editor.LineItem, 0, len(inv.Items)),
	}
	for _, it := range inv.Items {
		form.Items = append(form.Items, editor.LineItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Total:       it.Total,
		})
	}
	return form
}
