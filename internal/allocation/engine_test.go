package allocation

import "testing"

func TestAllocateSingleItemTakesEverything(t *testing.T) {
	items := []Item{{Name: "soy wax", Quantity: 2, UnitCostCents: 500}}
	out := Allocate(items, 100, 50)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	line := out[0]
	if line.AllocatedShippingCents != 100 {
		t.Fatalf("expected shipping 100, got %d", line.AllocatedShippingCents)
	}
	if line.AllocatedTaxCents != 50 {
		t.Fatalf("expected tax 50, got %d", line.AllocatedTaxCents)
	}
	if line.FullyLoadedCostCents != 1150 {
		t.Fatalf("expected fully loaded 1150, got %d", line.FullyLoadedCostCents)
	}
	if line.CostPerUnitCents != 575 {
		t.Fatalf("expected per-unit 575, got %d", line.CostPerUnitCents)
	}
}

func TestAllocateSplitsProportionally(t *testing.T) {
	items := []Item{
		{Name: "wicks", Quantity: 1, UnitCostCents: 300},
		{Name: "jars", Quantity: 1, UnitCostCents: 700},
	}
	out := Allocate(items, 100, 0)
	if out[0].AllocatedShippingCents != 30 {
		t.Fatalf("expected 30 for first line, got %d", out[0].AllocatedShippingCents)
	}
	if out[1].AllocatedShippingCents != 70 {
		t.Fatalf("expected 70 for second line, got %d", out[1].AllocatedShippingCents)
	}
	if out[0].AllocatedShippingCents+out[1].AllocatedShippingCents != 100 {
		t.Fatalf("expected shares to sum to 100")
	}
}

func TestAllocateZeroSubtotal(t *testing.T) {
	items := []Item{
		{Name: "free sample", Quantity: 0, UnitCostCents: 0},
		{Name: "another", Quantity: 3, UnitCostCents: 0},
	}
	for _, line := range Allocate(items, 500, 250) {
		if line.AllocatedShippingCents != 0 || line.AllocatedTaxCents != 0 ||
			line.FullyLoadedCostCents != 0 || line.CostPerUnitCents != 0 {
			t.Fatalf("expected all-zero allocation for %q, got %+v", line.Name, line)
		}
	}
}

func TestAllocateZeroQuantityLineDoesNotPanic(t *testing.T) {
	items := []Item{
		{Name: "freebie", Quantity: 0, UnitCostCents: 400},
		{Name: "fragrance oil", Quantity: 4, UnitCostCents: 250},
	}
	out := Allocate(items, 80, 0)
	if out[0].CostPerUnitCents != 0 {
		t.Fatalf("zero-quantity line should have zero per-unit cost, got %d", out[0].CostPerUnitCents)
	}
	if out[1].AllocatedShippingCents != 80 {
		t.Fatalf("expected remaining line to absorb shipping, got %d", out[1].AllocatedShippingCents)
	}
}

func TestAllocateRoundingDriftBound(t *testing.T) {
	items := []Item{
		{Name: "a", Quantity: 1, UnitCostCents: 333},
		{Name: "b", Quantity: 1, UnitCostCents: 333},
		{Name: "c", Quantity: 1, UnitCostCents: 334},
	}
	const shipping = int64(100)
	out := Allocate(items, shipping, 0)
	var sum int64
	for _, line := range out {
		sum += line.AllocatedShippingCents
	}
	drift := sum - shipping
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(len(items)-1) {
		t.Fatalf("drift %d exceeds bound %d", drift, len(items)-1)
	}
}

func TestAllocatePerUnitTimesQuantityNearFullyLoaded(t *testing.T) {
	items := []Item{
		{Name: "jars", Quantity: 7, UnitCostCents: 199},
		{Name: "lids", Quantity: 3, UnitCostCents: 97},
	}
	for _, line := range Allocate(items, 137, 61) {
		diff := line.CostPerUnitCents*line.Quantity - line.FullyLoadedCostCents
		if diff < 0 {
			diff = -diff
		}
		// per-unit rounding may drift by up to half a cent per unit
		if diff > line.Quantity {
			t.Fatalf("%s: per-unit %d × qty %d too far from %d",
				line.Name, line.CostPerUnitCents, line.Quantity, line.FullyLoadedCostCents)
		}
	}
}

func TestAllocateIdempotent(t *testing.T) {
	items := []Item{
		{Name: "wax", Quantity: 2, UnitCostCents: 1217},
		{Name: "oil", Quantity: 5, UnitCostCents: 389},
	}
	first := Allocate(items, 995, 483)
	second := Allocate(items, 995, 483)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("allocation not deterministic at line %d", i)
		}
	}
}
