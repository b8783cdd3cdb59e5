package promo

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates supported discount mechanics.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed_amount"
	KindQuantity   Kind = "quantity_discount"
	KindBogo       Kind = "bogo"
)

// Trigger distinguishes code-entry promotions from automatic ones.
type Trigger string

const (
	TriggerCode      Trigger = "code_required"
	TriggerAutomatic Trigger = "automatic"
)

// Targeting enumerates customer eligibility rules.
type Targeting string

const (
	TargetAll           Targeting = "all"
	TargetFirstTime     Targeting = "first_time"
	TargetReturning     Targeting = "returning"
	TargetSpecificUsers Targeting = "specific_users"
	TargetOrderCount    Targeting = "order_count"
	TargetLifetimeSpend Targeting = "lifetime_spend"
)

// Reason identifies why a promotion did not apply. Callers map these to
// user-facing copy; the evaluator never reports ineligibility as an error.
type Reason string

const (
	ReasonInactive             Reason = "inactive"
	ReasonOutOfWindow          Reason = "out_of_window"
	ReasonExhausted            Reason = "exhausted"
	ReasonCustomerExhausted    Reason = "customer_exhausted"
	ReasonTargetingMismatch    Reason = "targeting_mismatch"
	ReasonNotApplicable        Reason = "not_applicable"
	ReasonBelowMinimum         Reason = "below_minimum"
	ReasonInsufficientQuantity Reason = "insufficient_quantity"
)

// Rule captures the runtime constraints of a promotion. Which fields are
// required depends on Kind and Targeting; Validate enforces that before a
// rule reaches the evaluator.
type Rule struct {
	Code                  string
	Name                  string
	Kind                  Kind
	Trigger               Trigger
	DiscountPercent       int32
	DiscountAmountCents   int64
	MinQuantity           int32
	ApplyToQuantity       int32
	MinOrderCents         int64
	MaxRedemptions        *int32
	MaxPerCustomer        *int32
	CurrentRedemptions    int32
	Targeting             Targeting
	TargetUserIDs         []uuid.UUID
	MinOrderCount         int32
	MinLifetimeSpendCents int64
	ProductSlugs          []string
	StartsAt              *time.Time
	ExpiresAt             *time.Time
	Active                bool
}

// Shopper is the caller-resolved customer snapshot the targeting rules run
// against. The evaluator performs no lookups of its own.
type Shopper struct {
	ID                 uuid.UUID
	CompletedOrders    int32
	LifetimeSpendCents int64
	PriorRedemptions   int32
}

// Item is a cart line eligible for promotion calculation.
type Item struct {
	ProductSlug    string
	Qty            int32
	UnitPriceCents int64
}

// Result is the outcome of evaluating one promotion against one cart.
type Result struct {
	Eligible      bool
	DiscountCents int64
	Reason        Reason
}

func ineligible(reason Reason) Result {
	return Result{Reason: reason}
}

// Validate checks the conditional field requirements implied by Kind and
// Targeting. Admin writes reject rules that fail this; Evaluate assumes it
// has already passed.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindPercentage, KindQuantity:
		if r.DiscountPercent <= 0 || r.DiscountPercent > 100 {
			return fmt.Errorf("%s promotion requires a percent between 1 and 100", r.Kind)
		}
		if r.Kind == KindQuantity && r.MinQuantity <= 0 {
			return errors.New("quantity_discount promotion requires minQuantity")
		}
	case KindFixed:
		if r.DiscountAmountCents <= 0 {
			return errors.New("fixed_amount promotion requires a positive amount")
		}
	case KindBogo:
		if r.MinQuantity <= 0 || r.ApplyToQuantity <= 0 {
			return errors.New("bogo promotion requires minQuantity and applyToQuantity")
		}
		if r.ApplyToQuantity >= r.MinQuantity {
			return errors.New("bogo applyToQuantity must be smaller than minQuantity")
		}
	default:
		return fmt.Errorf("unknown promotion kind %q", r.Kind)
	}

	switch r.Targeting {
	case TargetAll, TargetFirstTime, TargetReturning, "":
	case TargetSpecificUsers:
		if len(r.TargetUserIDs) == 0 {
			return errors.New("specific_users targeting requires target user ids")
		}
	case TargetOrderCount:
		if r.MinOrderCount <= 0 {
			return errors.New("order_count targeting requires minOrderCount")
		}
	case TargetLifetimeSpend:
		if r.MinLifetimeSpendCents <= 0 {
			return errors.New("lifetime_spend targeting requires minLifetimeSpendCents")
		}
	default:
		return fmt.Errorf("unknown targeting %q", r.Targeting)
	}
	return nil
}

// Evaluate determines eligibility and the discount amount for one promotion
// against one cart. It is pure: redemption counters are committed by the
// caller after payment confirmation, never here.
//
// Checks run cheapest-first and short-circuit on the first failure so the
// reported reason is deterministic.
func Evaluate(r Rule, cart []Item, shopper Shopper, now time.Time) Result {
	if !r.Active {
		return ineligible(ReasonInactive)
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return ineligible(ReasonOutOfWindow)
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return ineligible(ReasonOutOfWindow)
	}
	if r.MaxRedemptions != nil && r.CurrentRedemptions >= *r.MaxRedemptions {
		return ineligible(ReasonExhausted)
	}
	if r.MaxPerCustomer != nil && shopper.PriorRedemptions >= *r.MaxPerCustomer {
		return ineligible(ReasonCustomerExhausted)
	}
	if !targets(r, shopper) {
		return ineligible(ReasonTargetingMismatch)
	}

	eligibleItems, eligibleSubtotal, eligibleQty := restrict(r, cart)
	if len(r.ProductSlugs) > 0 && len(eligibleItems) == 0 {
		return ineligible(ReasonNotApplicable)
	}
	if r.MinOrderCents > 0 && subtotal(cart) < r.MinOrderCents {
		return ineligible(ReasonBelowMinimum)
	}
	if (r.Kind == KindQuantity || r.Kind == KindBogo) && eligibleQty < r.MinQuantity {
		return ineligible(ReasonInsufficientQuantity)
	}

	discount := compute(r, eligibleItems, eligibleSubtotal, eligibleQty)
	if discount > eligibleSubtotal {
		discount = eligibleSubtotal
	}
	if discount < 0 {
		discount = 0
	}
	return Result{Eligible: true, DiscountCents: discount}
}

func targets(r Rule, shopper Shopper) bool {
	switch r.Targeting {
	case TargetAll, "":
		return true
	case TargetFirstTime:
		return shopper.CompletedOrders == 0
	case TargetReturning:
		return shopper.CompletedOrders >= 1
	case TargetSpecificUsers:
		return slices.Contains(r.TargetUserIDs, shopper.ID)
	case TargetOrderCount:
		return shopper.CompletedOrders >= r.MinOrderCount
	case TargetLifetimeSpend:
		return shopper.LifetimeSpendCents >= r.MinLifetimeSpendCents
	default:
		return false
	}
}

// restrict applies the product-slug restriction. Discounts apply to the
// matching lines' subtotal only; an unrestricted rule sees the whole cart.
func restrict(r Rule, cart []Item) (items []Item, subtotalCents int64, qty int32) {
	for _, it := range cart {
		if it.Qty <= 0 || it.UnitPriceCents < 0 {
			continue
		}
		if len(r.ProductSlugs) > 0 && !slices.Contains(r.ProductSlugs, it.ProductSlug) {
			continue
		}
		items = append(items, it)
		subtotalCents += int64(it.Qty) * it.UnitPriceCents
		qty += it.Qty
	}
	return items, subtotalCents, qty
}

func subtotal(cart []Item) int64 {
	var total int64
	for _, it := range cart {
		if it.Qty <= 0 || it.UnitPriceCents < 0 {
			continue
		}
		total += int64(it.Qty) * it.UnitPriceCents
	}
	return total
}

func compute(r Rule, items []Item, eligibleSubtotal int64, eligibleQty int32) int64 {
	switch r.Kind {
	case KindPercentage, KindQuantity:
		return roundPercent(eligibleSubtotal, r.DiscountPercent)
	case KindFixed:
		return r.DiscountAmountCents
	case KindBogo:
		groups := eligibleQty / r.MinQuantity
		free := int64(groups) * int64(r.ApplyToQuantity)
		if free <= 0 {
			return 0
		}
		if free > int64(eligibleQty) {
			free = int64(eligibleQty)
		}
		return free * cheapestUnit(items)
	default:
		return 0
	}
}

// roundPercent computes round-half-up(amount × percent / 100).
func roundPercent(amount int64, percent int32) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*int64(percent) + 50) / 100
}

// cheapestUnit returns the lowest unit price among the eligible lines. Free
// BOGO units are always priced at this value so the customer never gets the
// most expensive unit free.
func cheapestUnit(items []Item) int64 {
	var cheapest int64 = -1
	for _, it := range items {
		if cheapest < 0 || it.UnitPriceCents < cheapest {
			cheapest = it.UnitPriceCents
		}
	}
	if cheapest < 0 {
		return 0
	}
	return cheapest
}
