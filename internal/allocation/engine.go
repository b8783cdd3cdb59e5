package allocation

import "github.com/shopspring/decimal"

// Item is a purchase order line prior to allocation.
type Item struct {
	Name          string
	Category      string
	Quantity      int64
	UnitCostCents int64
	Notes         string
}

// Allocated extends Item with its proportional share of the purchase-level
// shipping and tax costs. It is a derived view and is never persisted.
type Allocated struct {
	Item
	TotalCostCents         int64
	AllocatedShippingCents int64
	AllocatedTaxCents      int64
	FullyLoadedCostCents   int64
	CostPerUnitCents       int64
}

// Subtotal returns the combined direct cost of the items. Lines with a
// non-positive quantity or unit cost contribute nothing.
func Subtotal(items []Item) int64 {
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitCostCents <= 0 {
			continue
		}
		total += it.Quantity * it.UnitCostCents
	}
	return total
}

// Allocate apportions shipping and tax across items in proportion to each
// item's share of the purchase subtotal, producing fully loaded per-unit
// costs. Rounding is half-up per item; residual cent drift across the
// purchase is accepted rather than redistributed. When the subtotal is zero
// every allocated field is zero.
func Allocate(items []Item, shippingCents, taxCents int64) []Allocated {
	if shippingCents < 0 {
		shippingCents = 0
	}
	if taxCents < 0 {
		taxCents = 0
	}
	subtotal := Subtotal(items)
	out := make([]Allocated, 0, len(items))
	for _, it := range items {
		line := Allocated{Item: it}
		if subtotal == 0 {
			out = append(out, line)
			continue
		}
		itemCost := it.Quantity * it.UnitCostCents
		if itemCost < 0 {
			itemCost = 0
		}
		line.TotalCostCents = itemCost
		line.AllocatedShippingCents = share(itemCost, subtotal, shippingCents)
		line.AllocatedTaxCents = share(itemCost, subtotal, taxCents)
		line.FullyLoadedCostCents = itemCost + line.AllocatedShippingCents + line.AllocatedTaxCents
		if it.Quantity > 0 {
			line.CostPerUnitCents = decimal.NewFromInt(line.FullyLoadedCostCents).
				DivRound(decimal.NewFromInt(it.Quantity), 0).
				IntPart()
		}
		out = append(out, line)
	}
	return out
}

// share returns round-half-up(amount × itemCost / subtotal).
func share(itemCost, subtotal, amount int64) int64 {
	if itemCost <= 0 || amount <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(itemCost)).
		DivRound(decimal.NewFromInt(subtotal), 0).
		IntPart()
}
