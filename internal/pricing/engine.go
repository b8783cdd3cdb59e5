package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary value stored in cents.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Discount Money
	Tax      Money
	Shipping Money
	Total    Money
}

// Subtotal sums line totals, ignoring non-positive quantities.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// Compute calculates cart totals. The discount is capped at the subtotal so
// the order never goes negative; tax applies to the discounted amount.
func Compute(items []Item, discount Money, taxBps int, shipping Money) Summary {
	subtotal := Subtotal(items)
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	taxable := subtotal - discount
	tax := taxCents(taxable, taxBps)
	if shipping < 0 {
		shipping = 0
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    taxable + tax + shipping,
	}
}

// taxCents computes round-half-up(taxable × bps / 10000).
func taxCents(taxable Money, bps int) Money {
	if taxable <= 0 || bps <= 0 {
		return 0
	}
	return decimal.NewFromInt(taxable).
		Mul(decimal.NewFromInt(int64(bps))).
		DivRound(decimal.NewFromInt(10000), 0).
		IntPart()
}
