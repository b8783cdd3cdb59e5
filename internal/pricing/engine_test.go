package pricing

import "testing"

func TestComputeBasics(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 1800},
		{Qty: 1, UnitPrice: 900},
	}
	s := Compute(items, 500, 825, 599)
	if s.Subtotal != 4500 {
		t.Fatalf("subtotal: got %d", s.Subtotal)
	}
	if s.Discount != 500 {
		t.Fatalf("discount: got %d", s.Discount)
	}
	// 8.25% of 4000 = 330
	if s.Tax != 330 {
		t.Fatalf("tax: got %d", s.Tax)
	}
	if s.Total != 4000+330+599 {
		t.Fatalf("total: got %d", s.Total)
	}
}

func TestComputeDiscountCappedAtSubtotal(t *testing.T) {
	s := Compute([]Item{{Qty: 1, UnitPrice: 500}}, 1000, 825, 0)
	if s.Discount != 500 {
		t.Fatalf("expected discount capped at 500, got %d", s.Discount)
	}
	if s.Tax != 0 || s.Total != 0 {
		t.Fatalf("expected zero tax and total, got %+v", s)
	}
}

func TestComputeTaxRoundsHalfUp(t *testing.T) {
	// 8.25% of 103 = 8.4975 -> 8; 8.25% of 1000 = 82.5 -> 83
	if s := Compute([]Item{{Qty: 1, UnitPrice: 103}}, 0, 825, 0); s.Tax != 8 {
		t.Fatalf("expected 8, got %d", s.Tax)
	}
	if s := Compute([]Item{{Qty: 1, UnitPrice: 1000}}, 0, 825, 0); s.Tax != 83 {
		t.Fatalf("expected 83, got %d", s.Tax)
	}
}

func TestComputeIgnoresNonPositiveQty(t *testing.T) {
	s := Compute([]Item{{Qty: 0, UnitPrice: 1000}, {Qty: -2, UnitPrice: 500}}, 0, 0, 0)
	if s.Subtotal != 0 {
		t.Fatalf("expected zero subtotal, got %d", s.Subtotal)
	}
}

func TestComputeNegativeInputsClamped(t *testing.T) {
	s := Compute([]Item{{Qty: 1, UnitPrice: 1000}}, -50, 0, -10)
	if s.Discount != 0 || s.Shipping != 0 {
		t.Fatalf("expected clamped inputs, got %+v", s)
	}
	if s.Total != 1000 {
		t.Fatalf("expected 1000, got %d", s.Total)
	}
}
