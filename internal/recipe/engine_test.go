package recipe

import (
	"errors"
	"testing"
)

func TestBlendCostPerOzWeighted(t *testing.T) {
	// 60% of a 250c/oz oil + 40% of a 150c/oz oil = 210c/oz.
	cost, err := BlendCostPerOz([]Component{
		{ScentName: "lavender", Percent: 60, CostPerOzCents: 250},
		{ScentName: "cedar", Percent: 40, CostPerOzCents: 150},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 210 {
		t.Fatalf("expected 210, got %d", cost)
	}
}

func TestBlendCostHalfCentRoundsUp(t *testing.T) {
	// 70% of 5c/oz + 30% of 10c/oz = 6.5c/oz exactly; half-up gives 7.
	// Binary-float weighting lands at 6.499... and would round to 6.
	cost, err := BlendCostPerOz([]Component{
		{ScentName: "vanilla", Percent: 70, CostPerOzCents: 5},
		{ScentName: "clove", Percent: 30, CostPerOzCents: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 7 {
		t.Fatalf("expected 7, got %d", cost)
	}
}

func TestBlendCostRequiresFullHundred(t *testing.T) {
	_, err := BlendCostPerOz([]Component{
		{ScentName: "lavender", Percent: 60, CostPerOzCents: 250},
		{ScentName: "cedar", Percent: 30, CostPerOzCents: 150},
	})
	if !errors.Is(err, ErrBlendPercents) {
		t.Fatalf("expected ErrBlendPercents, got %v", err)
	}
}

func TestBlendCostRejectsNonPositivePercent(t *testing.T) {
	_, err := BlendCostPerOz([]Component{
		{ScentName: "lavender", Percent: 110, CostPerOzCents: 250},
		{ScentName: "cedar", Percent: -10, CostPerOzCents: 150},
	})
	if !errors.Is(err, ErrBlendPercents) {
		t.Fatalf("expected ErrBlendPercents, got %v", err)
	}
}

func TestCostBreakdown(t *testing.T) {
	// 7.5oz water jar at 0.9 ratio = 6.75oz wax; 8% load = 0.54oz fragrance.
	b := Cost(CostInput{
		WaterOz:                 7.5,
		WaxRatio:                0.9,
		FragranceLoad:           0.08,
		WaxCostPerOzCents:       22,
		FragranceCostPerOzCents: 210,
		WickCostCents:           15,
		ContainerCostCents:      250,
		TargetPriceCents:        1800,
	})
	if b.WaxOz != 6.75 {
		t.Fatalf("waxOz: got %v", b.WaxOz)
	}
	if b.FragranceOz != 0.54 {
		t.Fatalf("fragranceOz: got %v", b.FragranceOz)
	}
	// 6.75*22 = 148.5 -> 149; 0.54*210 = 113.4 -> 113
	if b.WaxCostCents != 149 {
		t.Fatalf("waxCost: got %d", b.WaxCostCents)
	}
	if b.FragranceCostCents != 113 {
		t.Fatalf("fragranceCost: got %d", b.FragranceCostCents)
	}
	if b.MaterialCostCents != 149+113+15 {
		t.Fatalf("materialCost: got %d", b.MaterialCostCents)
	}
	if b.TotalCostCents != b.MaterialCostCents+250 {
		t.Fatalf("totalCost: got %d", b.TotalCostCents)
	}
	if b.MarginCents != 1800-b.TotalCostCents {
		t.Fatalf("margin: got %d", b.MarginCents)
	}
}

func TestCostDefaultsWaxPrice(t *testing.T) {
	b := Cost(CostInput{WaterOz: 10, WaxRatio: 1, FragranceLoad: 0})
	if b.WaxCostCents != 10*DefaultWaxCostPerOzCents {
		t.Fatalf("expected default wax price, got %d", b.WaxCostCents)
	}
}

func TestCostZeroWaxNoDivide(t *testing.T) {
	b := Cost(CostInput{WaterOz: 0, WaxRatio: 0.9, WickCostCents: 15})
	if b.CostPerWaxOzCents != 0 {
		t.Fatalf("expected zero cost per oz, got %d", b.CostPerWaxOzCents)
	}
}

func TestCostMarginPercent(t *testing.T) {
	b := Cost(CostInput{
		WaterOz:          0,
		WickCostCents:    0,
		TargetPriceCents: 2000,
	})
	// zero cost -> 100% margin
	if b.MarginPercent != 100 {
		t.Fatalf("expected 100, got %v", b.MarginPercent)
	}
}
