package editor

// Pure totals arithmetic over line items and the three invoice-level
// adjustments. All amounts are float64; rounding happens only at display time.

// Subtotal sums line totals. An empty list yields 0.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return sum
}

// TaxAmount applies the rate to the discounted, shipping-inclusive base:
// (subtotal - discount + shipping) * rate/100. The discount is netted out and
// shipping is taxed before the rate is applied; tax is not computed on the
// bare subtotal.
func TaxAmount(subtotal, discount, shipping, taxRate float64) float64 {
	return (subtotal - discount + shipping) * (taxRate / 100)
}

// Total is the grand total: subtotal + tax - discount + shipping.
func Total(subtotal, taxAmount, discount, shipping float64) float64 {
	return subtotal + taxAmount - discount + shipping
}

// Summarize computes the full derived summary for a draft.
func Summarize(f FormData) Summary {
	sub := Subtotal(f.Items)
	tax := TaxAmount(sub, f.Discount, f.Shipping, f.TaxRate)
	return Summary{
		Subtotal:  sub,
		TaxAmount: tax,
		Total:     Total(sub, tax, f.Discount, f.Shipping),
	}
}
