package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Required("email", "a@b", v)
	if v["name"] != "required" {
		t.Fatalf("expected required violation, got %v", v)
	}
	if _, ok := v["email"]; ok {
		t.Fatalf("email should pass, got %v", v)
	}
}

func TestFloatValidators(t *testing.T) {
	v := Violations{}
	PositiveFloat("qty", 0, v)
	NonNegativeFloat("discount", -0.01, v)
	NonNegativeFloat("shipping", 0, v)
	RangeFloat("tax_rate", 100.5, 0, 100, v)
	if v["qty"] != "must_be_positive" {
		t.Fatalf("qty: %v", v)
	}
	if v["discount"] != "must_not_be_negative" {
		t.Fatalf("discount: %v", v)
	}
	if _, ok := v["shipping"]; ok {
		t.Fatalf("shipping 0 is allowed: %v", v)
	}
	if v["tax_rate"] != "out_of_range" {
		t.Fatalf("tax_rate: %v", v)
	}
	if v.Empty() {
		t.Fatal("violations present but Empty() true")
	}
}

func TestMaxLen(t *testing.T) {
	v := Violations{}
	MaxLen("notes", "ok", 5, v)
	MaxLen("terms", "too long for this", 5, v)
	if _, ok := v["notes"]; ok {
		t.Fatalf("notes within limit: %v", v)
	}
	if v["terms"] != "too_long" {
		t.Fatalf("terms: %v", v)
	}
}
