package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// Persister is the external persistence collaborator. Implementations return
// errors for expected failure modes instead of panicking; the save workflow
// reports them to the user.
type Persister interface {
	CreateInvoice(ctx context.Context, form FormData) (uint, error)
	UpdateInvoice(ctx context.Context, id uint, form FormData) error
}

var ErrNoPersister = errors.New("editor: store has no persister")

// Store owns one in-progress invoice draft for the duration of an editing
// session. Instances are caller-owned and not safe for concurrent use; all
// mutations are synchronous. Construct one store per editor session.
type Store struct {
	refs      References
	form      FormData
	invoiceID uint // 0 until first successful save
	saving    bool
	dirty     bool
	persister Persister
}

// NewStore builds a store over the reference snapshot loaded at editor start.
// A nil initial means a new invoice: status draft, no items, zero adjustments.
// invoiceID is non-zero only when editing an existing invoice.
func NewStore(refs References, initial *FormData, invoiceID uint, p Persister) *Store {
	s := &Store{refs: refs, invoiceID: invoiceID, persister: p}
	if initial != nil {
		s.form = initial.Clone()
	} else {
		s.form = FormData{
			Status:   models.InvoiceStatusDraft,
			Currency: "EUR",
			Items:    []LineItem{},
		}
	}
	return s
}

// Form returns a snapshot of the current draft.
func (s *Store) Form() FormData { return s.form.Clone() }

// InvoiceID returns the persisted id, or 0 while the draft is unsaved.
func (s *Store) InvoiceID() uint { return s.invoiceID }

// IsSaving reports whether a save is in flight. Callers are expected to check
// it before triggering another save; the store does not queue or reject.
func (s *Store) IsSaving() bool { return s.saving }

// HasUnsavedChanges reports whether the draft diverged from the last saved or
// loaded state.
func (s *Store) HasUnsavedChanges() bool { return s.dirty }

// Update applies top-level field edits and marks the draft dirty.
func (s *Store) Update(edits ...FieldEdit) {
	if len(edits) == 0 {
		return
	}
	for _, e := range edits {
		e.applyField(&s.form)
	}
	s.dirty = true
}

// UpdateItem applies edits to the item with the given id. A missing id is a
// silent no-op. The line total is recomputed afterwards so it always equals
// quantity times price.
func (s *Store) UpdateItem(itemID string, edits ...ItemEdit) {
	if len(edits) == 0 {
		return
	}
	for i := range s.form.Items {
		if s.form.Items[i].ID != itemID {
			continue
		}
		it := &s.form.Items[i]
		for _, e := range edits {
			e.applyItem(it)
		}
		it.Total = it.Quantity * it.Price
		s.dirty = true
		return
	}
}

// AddItem appends a blank line with a fresh id and returns a copy of it.
func (s *Store) AddItem() LineItem {
	it := LineItem{ID: uuid.NewString(), Quantity: 1}
	s.form.Items = append(s.form.Items, it)
	s.dirty = true
	return it
}

// DuplicateItem appends a copy of the source line under a new id. Returns
// false when the source id is unknown.
func (s *Store) DuplicateItem(itemID string) (LineItem, bool) {
	for _, it := range s.form.Items {
		if it.ID == itemID {
			dup := it
			dup.ID = uuid.NewString()
			s.form.Items = append(s.form.Items, dup)
			s.dirty = true
			return dup, true
		}
	}
	return LineItem{}, false
}

// DeleteItem removes the line with the given id; unknown ids are ignored.
// The at-least-one-item rule is checked at save time, not here.
func (s *Store) DeleteItem(itemID string) {
	for i, it := range s.form.Items {
		if it.ID == itemID {
			s.form.Items = append(s.form.Items[:i], s.form.Items[i+1:]...)
			s.dirty = true
			return
		}
	}
}

// SelectedSenderProfile resolves the chosen sender profile against the loaded
// reference list, or nil when the id is unset or stale.
func (s *Store) SelectedSenderProfile() *models.SenderProfile {
	for i := range s.refs.SenderProfiles {
		if s.refs.SenderProfiles[i].ID == s.form.SenderProfileID {
			return &s.refs.SenderProfiles[i]
		}
	}
	return nil
}

// SelectedBankAccount resolves the chosen bank account, or nil.
func (s *Store) SelectedBankAccount() *models.BankAccount {
	for i := range s.refs.BankAccounts {
		if s.refs.BankAccounts[i].ID == s.form.BankAccountID {
			return &s.refs.BankAccounts[i]
		}
	}
	return nil
}

// SelectedCustomer resolves the chosen customer, or nil.
func (s *Store) SelectedCustomer() *models.Customer {
	for i := range s.refs.Customers {
		if s.refs.Customers[i].ID == s.form.CustomerID {
			return &s.refs.Customers[i]
		}
	}
	return nil
}

// GroupedProducts annotates the catalog with the custom price applicable to
// the currently selected customer, so new lines can default to the
// customer-specific rate.
func (s *Store) GroupedProducts() []ProductChoice {
	choices := make([]ProductChoice, 0, len(s.refs.Products))
	for _, p := range s.refs.Products {
		c := ProductChoice{Product: p}
		if s.form.CustomerID != 0 {
			for _, cp := range s.refs.CustomPrices {
				if cp.ProductID == p.ID && cp.CustomerID == s.form.CustomerID {
					c.HasCustomPrice = true
					c.CustomPrice = cp.Price
					break
				}
			}
		}
		choices = append(choices, c)
	}
	return choices
}

// InvalidItems flags lines whose referenced product no longer exists in the
// catalog snapshot or has been deactivated. Free-form lines (no product
// reference) are never flagged.
func (s *Store) InvalidItems() []InvalidItem {
	var invalid []InvalidItem
	for _, it := range s.form.Items {
		if it.ProductID == 0 {
			continue
		}
		var found *models.Product
		for i := range s.refs.Products {
			if s.refs.Products[i].ID == it.ProductID {
				found = &s.refs.Products[i]
				break
			}
		}
		switch {
		case found == nil:
			invalid = append(invalid, InvalidItem{Item: it, Reason: fmt.Sprintf("product %q no longer exists", it.ProductName)})
		case !found.Active:
			invalid = append(invalid, InvalidItem{Item: it, Reason: fmt.Sprintf("product %q has been deactivated", it.ProductName)})
		}
	}
	return invalid
}

// Summary recomputes the derived totals from the current draft.
func (s *Store) Summary() Summary { return Summarize(s.form) }

// SaveInvoice sends the draft to the persistence collaborator: create on
// first save, update afterwards. On success the dirty flag clears and a newly
// assigned id is recorded; on failure the draft is left untouched and the
// error is returned for the workflow layer to report.
func (s *Store) SaveInvoice(ctx context.Context) error {
	if s.persister == nil {
		return ErrNoPersister
	}
	s.saving = true
	defer func() { s.saving = false }()

	if s.invoiceID == 0 {
		id, err := s.persister.CreateInvoice(ctx, s.Form())
		if err != nil {
			return err
		}
		s.invoiceID = id
	} else {
		if err := s.persister.UpdateInvoice(ctx, s.invoiceID, s.Form()); err != nil {
			return err
		}
	}
	s.dirty = false
	return nil
}
