package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/cart"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
	"github.com/desertcandleworks/backend-store/internal/obs"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrInsufficientStock is returned when a line exceeds available stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrCartNotFound is returned for an unknown cart id.
var ErrCartNotFound = errors.New("cart not found")

// Service turns a quoted cart into a pending order inside one transaction.
type Service struct {
	Pool *pgxpool.Pool
	Q    *dbgen.Queries
	Cart *cart.Service
	Bus  *events.Bus
	Log  zerolog.Logger
}

// Address is the shipping destination captured at checkout.
type Address struct {
	Name    string `json:"name" validate:"required,max=200"`
	Line1   string `json:"line1" validate:"required,max=200"`
	Line2   string `json:"line2" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=50"`
	Zip     string `json:"zip" validate:"required,max=20"`
	Country string `json:"country" validate:"required,len=2"`
}

// Input is the checkout payload.
type Input struct {
	CartID  string  `json:"cartId" validate:"required,uuid4"`
	Address Address `json:"address" validate:"required"`
}

// OrderView is the API form of a placed order.
type OrderView struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	SubtotalCents int64        `json:"subtotalCents"`
	DiscountCents int64        `json:"discountCents"`
	TaxCents      int64        `json:"taxCents"`
	ShippingCents int64        `json:"shippingCents"`
	TotalCents    int64        `json:"totalCents"`
	PromoCode     string       `json:"promoCode,omitempty"`
	Items         []LineView   `json:"items"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// LineView is one order line.
type LineView struct {
	VariantID      string `json:"variantId"`
	ProductSlug    string `json:"productSlug"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	Qty            int32  `json:"qty"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// Create places the order in a single transaction: it re-quotes the cart,
// reserves stock, writes the order and its lines, and empties the cart.
// The promotion itself is settled later, when payment confirms.
func (s *Service) Create(ctx context.Context, in Input) (OrderView, error) {
	if s == nil || s.Pool == nil || s.Q == nil || s.Cart == nil {
		return OrderView{}, errors.New("checkout service not configured")
	}
	cartID, err := cart.ToUUID(in.CartID)
	if err != nil {
		return OrderView{}, fmt.Errorf("parse cart id: %w", err)
	}
	c, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderView{}, ErrCartNotFound
		}
		return OrderView{}, err
	}
	items, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return OrderView{}, err
	}
	if len(items) == 0 {
		return OrderView{}, ErrEmptyCart
	}
	summary, promoCode, err := s.Cart.Quote(ctx, c, items)
	if err != nil {
		return OrderView{}, err
	}
	addr, err := json.Marshal(in.Address)
	if err != nil {
		return OrderView{}, fmt.Errorf("encode address: %w", err)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return OrderView{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	for _, it := range items {
		if _, err := qtx.AdjustVariantStock(ctx, dbgen.AdjustVariantStockParams{ID: it.VariantID, Delta: -it.Qty}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				recordPlaced("out_of_stock")
				return OrderView{}, fmt.Errorf("%w: %s", ErrInsufficientStock, it.Sku)
			}
			return OrderView{}, err
		}
	}

	order, err := qtx.CreateOrder(ctx, dbgen.CreateOrderParams{
		UserID:        c.UserID,
		Status:        dbgen.OrderStatusPendingPayment,
		SubtotalCents: summary.SubtotalCents,
		DiscountCents: summary.DiscountCents,
		TaxCents:      summary.TaxCents,
		ShippingCents: summary.ShippingCents,
		TotalCents:    summary.TotalCents,
		PromoCode:     optText(promoCode),
		ShippingName:  pgtype.Text{String: in.Address.Name, Valid: true},
		ShippingAddr:  addr,
	})
	if err != nil {
		return OrderView{}, fmt.Errorf("create order: %w", err)
	}
	for _, it := range items {
		if err := qtx.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
			OrderID:        order.ID,
			VariantID:      it.VariantID,
			ProductSlug:    it.ProductSlug,
			Name:           it.Name,
			Sku:            it.Sku,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
		}); err != nil {
			return OrderView{}, fmt.Errorf("create order item: %w", err)
		}
	}
	if err := qtx.ClearCart(ctx, cartID); err != nil {
		return OrderView{}, err
	}
	if err := qtx.SetCartPromoCode(ctx, dbgen.SetCartPromoCodeParams{ID: cartID, Code: pgtype.Text{}}); err != nil {
		return OrderView{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return OrderView{}, err
	}

	recordPlaced("ok")
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, order.ID, map[string]any{
			"orderId":    cart.UUIDString(order.ID),
			"totalCents": order.TotalCents,
			"promoCode":  promoCode,
		}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", cart.UUIDString(order.ID)).Msg("order.created emit failed")
		}
	}
	return toView(order, items), nil
}

// Get loads a placed order with its lines.
func (s *Service) Get(ctx context.Context, orderID pgtype.UUID) (OrderView, error) {
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return OrderView{}, err
	}
	lines, err := s.Q.ListOrderItems(ctx, orderID)
	if err != nil {
		return OrderView{}, err
	}
	view := OrderView{
		ID:            cart.UUIDString(order.ID),
		Status:        order.Status,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		TotalCents:    order.TotalCents,
		PromoCode:     order.PromoCode.String,
		CreatedAt:     order.CreatedAt.Time,
		Items:         make([]LineView, 0, len(lines)),
	}
	for _, it := range lines {
		view.Items = append(view.Items, LineView{
			VariantID:      cart.UUIDString(it.VariantID),
			ProductSlug:    it.ProductSlug,
			Name:           it.Name,
			SKU:            it.Sku,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return view, nil
}

func toView(order dbgen.Order, items []dbgen.CartItem) OrderView {
	view := OrderView{
		ID:            cart.UUIDString(order.ID),
		Status:        order.Status,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		TotalCents:    order.TotalCents,
		PromoCode:     order.PromoCode.String,
		CreatedAt:     order.CreatedAt.Time,
		Items:         make([]LineView, 0, len(items)),
	}
	for _, it := range items {
		view.Items = append(view.Items, LineView{
			VariantID:      cart.UUIDString(it.VariantID),
			ProductSlug:    it.ProductSlug,
			Name:           it.Name,
			SKU:            it.Sku,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return view
}

func recordPlaced(result string) {
	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.WithLabelValues(result).Inc()
	}
}

func optText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
