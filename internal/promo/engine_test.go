package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var evalNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func activePercent(pct int32) Rule {
	return Rule{
		Code:            "SPRING",
		Kind:            KindPercentage,
		Trigger:         TriggerCode,
		DiscountPercent: pct,
		Targeting:       TargetAll,
		Active:          true,
	}
}

func TestEvaluatePercentage(t *testing.T) {
	cart := []Item{{ProductSlug: "lavender-8oz", Qty: 1, UnitPriceCents: 5000}}
	res := Evaluate(activePercent(10), cart, Shopper{}, evalNow)
	if !res.Eligible {
		t.Fatalf("expected eligible, got reason %q", res.Reason)
	}
	if res.DiscountCents != 500 {
		t.Fatalf("expected 500, got %d", res.DiscountCents)
	}
}

func TestEvaluatePercentageRoundsHalfUp(t *testing.T) {
	// 15% of 1010 = 151.5 -> 152
	r := activePercent(15)
	cart := []Item{{ProductSlug: "cedar-4oz", Qty: 1, UnitPriceCents: 1010}}
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if res.DiscountCents != 152 {
		t.Fatalf("expected 152, got %d", res.DiscountCents)
	}
}

func TestEvaluateFixedAmountCappedAtSubtotal(t *testing.T) {
	r := Rule{
		Code:                "TENOFF",
		Kind:                KindFixed,
		DiscountAmountCents: 1000,
		Targeting:           TargetAll,
		Active:              true,
	}
	cart := []Item{{ProductSlug: "vanilla-8oz", Qty: 1, UnitPriceCents: 500}}
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if !res.Eligible {
		t.Fatalf("expected eligible, got reason %q", res.Reason)
	}
	if res.DiscountCents != 500 {
		t.Fatalf("expected cap at 500, got %d", res.DiscountCents)
	}
}

func TestEvaluateInactiveWinsOverEverything(t *testing.T) {
	r := activePercent(10)
	r.Active = false
	r.ExpiresAt = ptr(evalNow.Add(-time.Hour))
	res := Evaluate(r, []Item{{Qty: 1, UnitPriceCents: 100}}, Shopper{}, evalNow)
	if res.Eligible || res.Reason != ReasonInactive {
		t.Fatalf("expected inactive, got %+v", res)
	}
}

func TestEvaluateWindow(t *testing.T) {
	cart := []Item{{Qty: 1, UnitPriceCents: 1000}}

	early := activePercent(10)
	early.StartsAt = ptr(evalNow.Add(time.Hour))
	if res := Evaluate(early, cart, Shopper{}, evalNow); res.Reason != ReasonOutOfWindow {
		t.Fatalf("not-yet-started: expected out_of_window, got %+v", res)
	}

	late := activePercent(10)
	late.ExpiresAt = ptr(evalNow.Add(-time.Minute))
	if res := Evaluate(late, cart, Shopper{}, evalNow); res.Reason != ReasonOutOfWindow {
		t.Fatalf("expired: expected out_of_window, got %+v", res)
	}

	boundary := activePercent(10)
	boundary.ExpiresAt = ptr(evalNow)
	if res := Evaluate(boundary, cart, Shopper{}, evalNow); !res.Eligible {
		t.Fatalf("expiry instant should still be eligible, got %+v", res)
	}
}

func TestEvaluateRedemptionLimits(t *testing.T) {
	cart := []Item{{Qty: 1, UnitPriceCents: 1000}}

	global := activePercent(10)
	global.MaxRedemptions = ptr(int32(100))
	global.CurrentRedemptions = 100
	if res := Evaluate(global, cart, Shopper{}, evalNow); res.Reason != ReasonExhausted {
		t.Fatalf("expected exhausted, got %+v", res)
	}

	perUser := activePercent(10)
	perUser.MaxPerCustomer = ptr(int32(1))
	shopper := Shopper{PriorRedemptions: 1}
	if res := Evaluate(perUser, cart, shopper, evalNow); res.Reason != ReasonCustomerExhausted {
		t.Fatalf("expected customer_exhausted, got %+v", res)
	}
}

func TestEvaluateTargeting(t *testing.T) {
	cart := []Item{{Qty: 1, UnitPriceCents: 1000}}
	known := uuid.New()

	cases := []struct {
		name     string
		mutate   func(*Rule)
		shopper  Shopper
		eligible bool
	}{
		{"first_time rejects repeat buyer", func(r *Rule) { r.Targeting = TargetFirstTime },
			Shopper{CompletedOrders: 1}, false},
		{"first_time accepts new buyer", func(r *Rule) { r.Targeting = TargetFirstTime },
			Shopper{}, true},
		{"returning rejects new buyer", func(r *Rule) { r.Targeting = TargetReturning },
			Shopper{}, false},
		{"specific_users matches listed id", func(r *Rule) {
			r.Targeting = TargetSpecificUsers
			r.TargetUserIDs = []uuid.UUID{known}
		}, Shopper{ID: known}, true},
		{"specific_users rejects others", func(r *Rule) {
			r.Targeting = TargetSpecificUsers
			r.TargetUserIDs = []uuid.UUID{known}
		}, Shopper{ID: uuid.New()}, false},
		{"order_count threshold", func(r *Rule) {
			r.Targeting = TargetOrderCount
			r.MinOrderCount = 5
		}, Shopper{CompletedOrders: 4}, false},
		{"lifetime_spend threshold", func(r *Rule) {
			r.Targeting = TargetLifetimeSpend
			r.MinLifetimeSpendCents = 10000
		}, Shopper{LifetimeSpendCents: 10000}, true},
	}
	for _, tc := range cases {
		r := activePercent(10)
		tc.mutate(&r)
		res := Evaluate(r, cart, tc.shopper, evalNow)
		if res.Eligible != tc.eligible {
			t.Fatalf("%s: expected eligible=%v, got %+v", tc.name, tc.eligible, res)
		}
		if !tc.eligible && res.Reason != ReasonTargetingMismatch {
			t.Fatalf("%s: expected targeting_mismatch, got %q", tc.name, res.Reason)
		}
	}
}

func TestEvaluateProductRestrictionScopesDiscount(t *testing.T) {
	r := activePercent(50)
	r.ProductSlugs = []string{"lavender-8oz"}
	cart := []Item{
		{ProductSlug: "lavender-8oz", Qty: 2, UnitPriceCents: 1000},
		{ProductSlug: "cedar-8oz", Qty: 1, UnitPriceCents: 9000},
	}
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %q", res.Reason)
	}
	// 50% of the matching lines only (2000), not the whole cart
	if res.DiscountCents != 1000 {
		t.Fatalf("expected 1000, got %d", res.DiscountCents)
	}
}

func TestEvaluateProductRestrictionNoMatch(t *testing.T) {
	r := activePercent(50)
	r.ProductSlugs = []string{"lavender-8oz"}
	cart := []Item{{ProductSlug: "cedar-8oz", Qty: 1, UnitPriceCents: 9000}}
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if res.Eligible || res.Reason != ReasonNotApplicable {
		t.Fatalf("expected not_applicable, got %+v", res)
	}
}

func TestEvaluateMinOrderUsesWholeCart(t *testing.T) {
	r := activePercent(10)
	r.ProductSlugs = []string{"lavender-8oz"}
	r.MinOrderCents = 5000
	cart := []Item{
		{ProductSlug: "lavender-8oz", Qty: 1, UnitPriceCents: 1000},
		{ProductSlug: "cedar-8oz", Qty: 1, UnitPriceCents: 4500},
	}
	// whole cart 5500 clears the minimum even though matching lines are 1000
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %q", res.Reason)
	}
	if res.DiscountCents != 100 {
		t.Fatalf("expected 100, got %d", res.DiscountCents)
	}

	r.MinOrderCents = 6000
	res = Evaluate(r, cart, Shopper{}, evalNow)
	if res.Reason != ReasonBelowMinimum {
		t.Fatalf("expected below_minimum, got %+v", res)
	}
}

func TestEvaluateQuantityDiscount(t *testing.T) {
	r := Rule{
		Code:            "BULK",
		Kind:            KindQuantity,
		DiscountPercent: 20,
		MinQuantity:     3,
		Targeting:       TargetAll,
		Active:          true,
	}
	short := []Item{{ProductSlug: "vanilla-8oz", Qty: 2, UnitPriceCents: 1500}}
	if res := Evaluate(r, short, Shopper{}, evalNow); res.Reason != ReasonInsufficientQuantity {
		t.Fatalf("expected insufficient_quantity, got %+v", res)
	}

	enough := []Item{{ProductSlug: "vanilla-8oz", Qty: 3, UnitPriceCents: 1500}}
	res := Evaluate(r, enough, Shopper{}, evalNow)
	if !res.Eligible || res.DiscountCents != 900 {
		t.Fatalf("expected 900 off 4500, got %+v", res)
	}

	// flat percentage, not per-tier repeating: 6 units discount the same 20%
	six := []Item{{ProductSlug: "vanilla-8oz", Qty: 6, UnitPriceCents: 1500}}
	res = Evaluate(r, six, Shopper{}, evalNow)
	if res.DiscountCents != 1800 {
		t.Fatalf("expected 1800 off 9000, got %d", res.DiscountCents)
	}
}

func TestEvaluateBogo(t *testing.T) {
	r := Rule{
		Code:            "B2G1",
		Kind:            KindBogo,
		MinQuantity:     3,
		ApplyToQuantity: 1,
		Targeting:       TargetAll,
		Active:          true,
	}
	cart := []Item{
		{ProductSlug: "lavender-8oz", Qty: 2, UnitPriceCents: 1800},
		{ProductSlug: "cedar-4oz", Qty: 1, UnitPriceCents: 900},
	}
	res := Evaluate(r, cart, Shopper{}, evalNow)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %q", res.Reason)
	}
	// one free unit priced at the cheapest eligible line
	if res.DiscountCents != 900 {
		t.Fatalf("expected 900, got %d", res.DiscountCents)
	}

	// two full groups of three -> two free units
	cart[0].Qty = 5
	res = Evaluate(r, cart, Shopper{}, evalNow)
	if res.DiscountCents != 1800 {
		t.Fatalf("expected 1800 for six units, got %d", res.DiscountCents)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	r := activePercent(25)
	r.MaxRedemptions = ptr(int32(50))
	r.CurrentRedemptions = 12
	cart := []Item{
		{ProductSlug: "lavender-8oz", Qty: 3, UnitPriceCents: 1234},
		{ProductSlug: "cedar-4oz", Qty: 1, UnitPriceCents: 567},
	}
	shopper := Shopper{ID: uuid.New(), CompletedOrders: 2, LifetimeSpendCents: 8000}
	first := Evaluate(r, cart, shopper, evalNow)
	second := Evaluate(r, cart, shopper, evalNow)
	if first != second {
		t.Fatalf("evaluation not deterministic: %+v vs %+v", first, second)
	}
	if r.CurrentRedemptions != 12 {
		t.Fatalf("evaluate must not mutate redemption counters")
	}
}

func TestValidateConditionalFields(t *testing.T) {
	cases := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"percentage needs percent", Rule{Kind: KindPercentage}, true},
		{"percentage over 100", Rule{Kind: KindPercentage, DiscountPercent: 101}, true},
		{"fixed needs amount", Rule{Kind: KindFixed}, true},
		{"quantity needs minQuantity", Rule{Kind: KindQuantity, DiscountPercent: 10}, true},
		{"bogo apply must be below min", Rule{Kind: KindBogo, MinQuantity: 2, ApplyToQuantity: 2}, true},
		{"specific_users needs ids", Rule{Kind: KindFixed, DiscountAmountCents: 100, Targeting: TargetSpecificUsers}, true},
		{"order_count needs threshold", Rule{Kind: KindFixed, DiscountAmountCents: 100, Targeting: TargetOrderCount}, true},
		{"unknown kind", Rule{Kind: "mystery"}, true},
		{"valid bogo", Rule{Kind: KindBogo, MinQuantity: 3, ApplyToQuantity: 1, Targeting: TargetAll}, false},
		{"valid percentage", Rule{Kind: KindPercentage, DiscountPercent: 15}, false},
	}
	for _, tc := range cases {
		err := tc.rule.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
