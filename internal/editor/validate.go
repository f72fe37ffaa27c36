package editor

import (
	"fmt"
	"strings"
)

// ValidateForm runs the full-form check and returns human-readable messages.
// An empty slice means the draft is submittable. Message order is stable:
// header fields first, then the item rule, then per-item checks in item order,
// then the numeric adjustments.
func ValidateForm(f FormData) []string {
	var msgs []string
	if strings.TrimSpace(f.Number) == "" {
		msgs = append(msgs, "invoice number is required")
	}
	if f.SenderProfileID == 0 {
		msgs = append(msgs, "sender profile is required")
	}
	if f.BankAccountID == 0 {
		msgs = append(msgs, "bank account is required")
	}
	if f.CustomerID == 0 {
		msgs = append(msgs, "customer is required")
	}
	if f.IssueDate.IsZero() {
		msgs = append(msgs, "issue date is required")
	}
	if f.DueDate.IsZero() {
		msgs = append(msgs, "due date is required")
	}
	if strings.TrimSpace(f.Currency) == "" {
		msgs = append(msgs, "currency is required")
	}
	if len(f.Items) == 0 {
		msgs = append(msgs, "invoice must contain at least one item")
	}
	for i, it := range f.Items {
		n := i + 1
		if strings.TrimSpace(it.ProductName) == "" {
			msgs = append(msgs, fmt.Sprintf("item %d: name is required", n))
		}
		if strings.TrimSpace(it.Unit) == "" {
			msgs = append(msgs, fmt.Sprintf("item %d: unit is required", n))
		}
		if it.Quantity <= 0 {
			msgs = append(msgs, fmt.Sprintf("item %d: quantity must be greater than zero", n))
		}
		if it.Price < 0 {
			msgs = append(msgs, fmt.Sprintf("item %d: price must not be negative", n))
		}
	}
	if f.TaxRate < 0 || f.TaxRate > 100 {
		msgs = append(msgs, "tax rate must be between 0 and 100")
	}
	if f.Discount < 0 {
		msgs = append(msgs, "discount must not be negative")
	}
	if f.Shipping < 0 {
		msgs = append(msgs, "shipping must not be negative")
	}
	return msgs
}
