package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Required("email", "a@b", v)
	if v["name"] != "required" {
		t.Errorf("blank value not flagged: %v", v)
	}
	if _, ok := v["email"]; ok {
		t.Errorf("non-empty value flagged: %v", v)
	}
}

func TestFloatValidators(t *testing.T) {
	v := Violations{}
	PositiveFloat("quantity", 0, v)
	NonNegativeFloat("rate", -1, v)
	RangeFloat("vat", 120, 0, 100, v)
	if v["quantity"] != "must_be_positive" || v["rate"] != "must_not_be_negative" || v["vat"] != "out_of_range" {
		t.Errorf("unexpected violations: %v", v)
	}

	v = Violations{}
	PositiveFloat("quantity", 0.5, v)
	NonNegativeFloat("rate", 0, v)
	RangeFloat("vat", 20, 0, 100, v)
	if !v.Empty() {
		t.Errorf("valid values flagged: %v", v)
	}
}

func TestMinCount(t *testing.T) {
	v := Violations{}
	MinCount("lines", 0, 1, v)
	if v["lines"] != "required" {
		t.Errorf("empty collection not flagged: %v", v)
	}
	v = Violations{}
	MinCount("lines", 2, 1, v)
	if !v.Empty() {
		t.Errorf("sufficient collection flagged: %v", v)
	}
}
