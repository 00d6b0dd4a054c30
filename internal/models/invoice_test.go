package models

import "testing"

func TestInvoiceStatusValid(t *testing.T) {
	for _, s := range []InvoiceStatus{
		InvoiceStatusDraft, InvoiceStatusPendingApproval, InvoiceStatusApproved,
		InvoiceStatusIssued, InvoiceStatusCancelled,
	} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []InvoiceStatus{"", "paid", "DRAFT"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestInvoiceLifecycleFlags(t *testing.T) {
	cases := []struct {
		status    InvoiceStatus
		finalized bool
		editable  bool
	}{
		{InvoiceStatusDraft, false, true},
		{InvoiceStatusPendingApproval, false, true},
		{InvoiceStatusApproved, true, false},
		{InvoiceStatusIssued, true, false},
		{InvoiceStatusCancelled, false, false},
	}
	for _, c := range cases {
		inv := Invoice{Status: c.status}
		if got := inv.Finalized(); got != c.finalized {
			t.Errorf("%s: Finalized = %v, want %v", c.status, got, c.finalized)
		}
		if got := inv.Editable(); got != c.editable {
			t.Errorf("%s: Editable = %v, want %v", c.status, got, c.editable)
		}
	}
}

func TestLineAmount(t *testing.T) {
	l := InvoiceLine{Quantity: 7.5, UnitRate: 80}
	if got := l.Amount(); got != 600 {
		t.Errorf("Amount = %v, want 600", got)
	}
}
