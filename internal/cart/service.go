package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/pricing"
	"github.com/desertcandleworks/backend-store/internal/promo"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier captures the database methods used by the cart service.
type Querier interface {
	CreateCart(ctx context.Context, userID pgtype.UUID) (dbgen.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (dbgen.Cart, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]dbgen.CartItem, error)
	UpsertCartItem(ctx context.Context, arg dbgen.UpsertCartItemParams) (dbgen.CartItem, error)
	SetCartItemQty(ctx context.Context, arg dbgen.SetCartItemQtyParams) error
	DeleteCartItem(ctx context.Context, arg dbgen.DeleteCartItemParams) error
	SetCartPromoCode(ctx context.Context, arg dbgen.SetCartPromoCodeParams) error
	GetVariantByID(ctx context.Context, id pgtype.UUID) (dbgen.ProductVariant, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.Product, error)
}

// Service encapsulates cart operations and checkout quoting.
type Service struct {
	Q                   Querier
	Promo               *promo.Service
	TaxRateBps          int32
	FreeShippingMinimum int64
	FlatShippingCents   int64
}

// ItemView is one line of the cart payload.
type ItemView struct {
	ID             string `json:"id"`
	VariantID      string `json:"variantId"`
	ProductSlug    string `json:"productSlug"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	Qty            int32  `json:"qty"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// Summary is the quoted totals block.
type Summary struct {
	SubtotalCents int64 `json:"subtotalCents"`
	DiscountCents int64 `json:"discountCents"`
	TaxCents      int64 `json:"taxCents"`
	ShippingCents int64 `json:"shippingCents"`
	TotalCents    int64 `json:"totalCents"`
}

// View is the full cart payload with a live quote.
type View struct {
	ID          string     `json:"id"`
	Items       []ItemView `json:"items"`
	PromoCode   string     `json:"promoCode,omitempty"`
	PromoReason string     `json:"promoReason,omitempty"`
	Summary     Summary    `json:"summary"`
}

// Create opens a new cart, anonymous when userID is nil.
func (s *Service) Create(ctx context.Context, userID *string) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	var uid pgtype.UUID
	if userID != nil && *userID != "" {
		parsed, err := ToUUID(*userID)
		if err != nil {
			return View{}, fmt.Errorf("parse user id: %w", err)
		}
		uid = parsed
	}
	cart, err := s.Q.CreateCart(ctx, uid)
	if err != nil {
		return View{}, err
	}
	return View{ID: UUIDString(cart.ID), Items: []ItemView{}}, nil
}

// Get loads the cart with a fresh quote.
func (s *Service) Get(ctx context.Context, cartID string) (View, error) {
	cart, items, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, cart, items)
}

// AddItem snapshots the variant's price and identity into the cart. Adding
// the same variant again increments quantity.
func (s *Service) AddItem(ctx context.Context, cartID, variantID string, qty int32) (View, error) {
	if qty <= 0 {
		return View{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	cart, _, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	vID, err := ToUUID(variantID)
	if err != nil {
		return View{}, fmt.Errorf("parse variant id: %w", err)
	}
	variant, err := s.Q.GetVariantByID(ctx, vID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, fmt.Errorf("variant not found: %w", ErrInvalidInput)
		}
		return View{}, err
	}
	if !variant.Active {
		return View{}, fmt.Errorf("variant not for sale: %w", ErrInvalidInput)
	}
	if variant.Stock < qty {
		return View{}, fmt.Errorf("insufficient stock: %w", ErrInvalidInput)
	}
	product, err := s.Q.GetProductByID(ctx, variant.ProductID)
	if err != nil {
		return View{}, err
	}
	if _, err := s.Q.UpsertCartItem(ctx, dbgen.UpsertCartItemParams{
		CartID:         cart.ID,
		VariantID:      variant.ID,
		ProductSlug:    product.Slug,
		Name:           fmt.Sprintf("%s %s %doz", product.Name, variant.Scent, variant.SizeOz),
		Sku:            variant.Sku,
		Qty:            qty,
		UnitPriceCents: variant.PriceCents,
	}); err != nil {
		return View{}, err
	}
	return s.Get(ctx, cartID)
}

// UpdateItemQty sets a line's quantity; zero or below removes the line.
func (s *Service) UpdateItemQty(ctx context.Context, cartID, itemID string, qty int32) (View, error) {
	cart, _, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	iID, err := ToUUID(itemID)
	if err != nil {
		return View{}, fmt.Errorf("parse item id: %w", err)
	}
	if qty <= 0 {
		if err := s.Q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{CartID: cart.ID, ItemID: iID}); err != nil {
			return View{}, err
		}
	} else if err := s.Q.SetCartItemQty(ctx, dbgen.SetCartItemQtyParams{CartID: cart.ID, ItemID: iID, Qty: qty}); err != nil {
		return View{}, err
	}
	return s.Get(ctx, cartID)
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (View, error) {
	cart, _, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	iID, err := ToUUID(itemID)
	if err != nil {
		return View{}, fmt.Errorf("parse item id: %w", err)
	}
	if err := s.Q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{CartID: cart.ID, ItemID: iID}); err != nil {
		return View{}, err
	}
	return s.Get(ctx, cartID)
}

// ApplyPromo attaches a code when the evaluator accepts it. An ineligible
// code comes back as a reason in the view, not an error.
func (s *Service) ApplyPromo(ctx context.Context, cartID, code string) (View, error) {
	cart, items, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if s.Promo == nil {
		return View{}, errors.New("promo service not configured")
	}
	res, err := s.Promo.Preview(ctx, code, userIDPtr(cart), promoItems(items))
	if err != nil {
		if errors.Is(err, promo.ErrNotFound) {
			return View{}, fmt.Errorf("unknown promo code: %w", ErrInvalidInput)
		}
		return View{}, err
	}
	if !res.Eligible {
		view, verr := s.view(ctx, cart, items)
		if verr != nil {
			return View{}, verr
		}
		view.PromoReason = res.Reason
		return view, nil
	}
	if err := s.Q.SetCartPromoCode(ctx, dbgen.SetCartPromoCodeParams{
		ID:   cart.ID,
		Code: pgtype.Text{String: res.Code, Valid: true},
	}); err != nil {
		return View{}, err
	}
	return s.Get(ctx, cartID)
}

// RemovePromo clears the applied code.
func (s *Service) RemovePromo(ctx context.Context, cartID string) (View, error) {
	cart, _, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if err := s.Q.SetCartPromoCode(ctx, dbgen.SetCartPromoCodeParams{ID: cart.ID, Code: pgtype.Text{}}); err != nil {
		return View{}, err
	}
	return s.Get(ctx, cartID)
}

// Quote computes the totals for the cart as it stands. The applied code is
// re-evaluated against live data; when none is applied the best automatic
// promotion is used.
func (s *Service) Quote(ctx context.Context, cart dbgen.Cart, items []dbgen.CartItem) (Summary, string, error) {
	var discount int64
	var appliedCode string
	if s.Promo != nil && len(items) > 0 {
		if cart.AppliedPromoCode.Valid {
			res, err := s.Promo.Preview(ctx, cart.AppliedPromoCode.String, userIDPtr(cart), promoItems(items))
			if err == nil && res.Eligible {
				discount = res.DiscountCents
				appliedCode = res.Code
			}
		} else {
			res, err := s.Promo.BestAutomatic(ctx, userIDPtr(cart), promoItems(items))
			if err != nil {
				return Summary{}, "", err
			}
			if res.Eligible {
				discount = res.DiscountCents
				appliedCode = res.Code
			}
		}
	}
	lines := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Item{Qty: int(it.Qty), UnitPrice: it.UnitPriceCents})
	}
	subtotal := pricing.Subtotal(lines)
	shipping := s.FlatShippingCents
	if subtotal-discount >= s.FreeShippingMinimum || subtotal == 0 {
		shipping = 0
	}
	sum := pricing.Compute(lines, discount, int(s.TaxRateBps), shipping)
	return Summary{
		SubtotalCents: sum.Subtotal,
		DiscountCents: sum.Discount,
		TaxCents:      sum.Tax,
		ShippingCents: sum.Shipping,
		TotalCents:    sum.Total,
	}, appliedCode, nil
}

func (s *Service) load(ctx context.Context, cartID string) (dbgen.Cart, []dbgen.CartItem, error) {
	if s == nil || s.Q == nil {
		return dbgen.Cart{}, nil, errors.New("cart service not configured")
	}
	id, err := ToUUID(cartID)
	if err != nil {
		return dbgen.Cart{}, nil, fmt.Errorf("parse cart id: %w", err)
	}
	cart, err := s.Q.GetCartByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Cart{}, nil, ErrNotFound
		}
		return dbgen.Cart{}, nil, err
	}
	items, err := s.Q.ListCartItems(ctx, id)
	if err != nil {
		return dbgen.Cart{}, nil, err
	}
	return cart, items, nil
}

func (s *Service) view(ctx context.Context, cart dbgen.Cart, items []dbgen.CartItem) (View, error) {
	summary, appliedCode, err := s.Quote(ctx, cart, items)
	if err != nil {
		return View{}, err
	}
	view := View{
		ID:        UUIDString(cart.ID),
		Items:     make([]ItemView, 0, len(items)),
		PromoCode: appliedCode,
		Summary:   summary,
	}
	for _, it := range items {
		view.Items = append(view.Items, ItemView{
			ID:             UUIDString(it.ID),
			VariantID:      UUIDString(it.VariantID),
			ProductSlug:    it.ProductSlug,
			Name:           it.Name,
			SKU:            it.Sku,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: int64(it.Qty) * it.UnitPriceCents,
		})
	}
	return view, nil
}

func promoItems(items []dbgen.CartItem) []promo.Item {
	out := make([]promo.Item, 0, len(items))
	for _, it := range items {
		out = append(out, promo.Item{
			ProductSlug:    it.ProductSlug,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return out
}

func userIDPtr(cart dbgen.Cart) *string {
	if !cart.UserID.Valid {
		return nil
	}
	v := UUIDString(cart.UserID)
	return &v
}

// ToUUID converts a string representation of a UUID into pgtype.UUID.
func ToUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// UUIDString converts a pgtype.UUID into a canonical string.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// UUIDEqual reports whether two UUID values are both valid and identical.
func UUIDEqual(a, b pgtype.UUID) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	return a.Bytes == b.Bytes
}
