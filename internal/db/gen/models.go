package dbgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// User is an account holder; Role is "customer" or "admin".
type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    pgtype.Timestamptz
}

// RefreshToken stores a hashed refresh token for session rotation.
type RefreshToken struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

// Product is a candle line; sellable units are its variants.
type Product struct {
	ID          pgtype.UUID
	Slug        string
	Name        string
	Description pgtype.Text
	Story       pgtype.Text
	Featured    bool
	Active      bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// ProductVariant is a concrete scent/size combination with its own SKU.
type ProductVariant struct {
	ID         pgtype.UUID
	ProductID  pgtype.UUID
	Sku        string
	Scent      string
	SizeOz     int32
	PriceCents int64
	Stock      int32
	Active     bool
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

// Cart may belong to a user or be anonymous (UserID invalid).
type Cart struct {
	ID               pgtype.UUID
	UserID           pgtype.UUID
	AppliedPromoCode pgtype.Text
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// CartItem snapshots the unit price at the time the line was added.
type CartItem struct {
	ID             pgtype.UUID
	CartID         pgtype.UUID
	VariantID      pgtype.UUID
	ProductSlug    string
	Name           string
	Sku            string
	Qty            int32
	UnitPriceCents int64
	CreatedAt      pgtype.Timestamptz
}

// Order status values.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusFulfilled      = "FULFILLED"
	OrderStatusCancelled      = "CANCELLED"
)

type Order struct {
	ID             pgtype.UUID
	UserID         pgtype.UUID
	Status         string
	SubtotalCents  int64
	DiscountCents  int64
	TaxCents       int64
	ShippingCents  int64
	TotalCents     int64
	PromoCode      pgtype.Text
	ShippingName   pgtype.Text
	ShippingAddr   []byte
	CreatedAt      pgtype.Timestamptz
	PaidAt         pgtype.Timestamptz
	FulfilledAt    pgtype.Timestamptz
	CancelledAt    pgtype.Timestamptz
}

// OrderItem snapshots product details so later catalog edits do not
// rewrite history.
type OrderItem struct {
	ID             pgtype.UUID
	OrderID        pgtype.UUID
	VariantID      pgtype.UUID
	ProductSlug    string
	Name           string
	Sku            string
	Qty            int32
	UnitPriceCents int64
}

// Payment tracks one provider attempt for an order.
type Payment struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	Provider    string
	ProviderRef pgtype.Text
	Status      string
	AmountCents int64
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// Promotion is the persisted form of a discount rule. Which columns are
// meaningful depends on Kind and Targeting.
type Promotion struct {
	ID                    pgtype.UUID
	Code                  string
	Name                  string
	Kind                  string
	TriggerType           string
	DiscountPercent       int32
	DiscountAmountCents   int64
	MinQuantity           int32
	ApplyToQuantity       int32
	MinOrderCents         int64
	MaxRedemptions        pgtype.Int4
	MaxPerCustomer        pgtype.Int4
	CurrentRedemptions    int32
	Targeting             string
	TargetUserIds         []pgtype.UUID
	MinOrderCount         int32
	MinLifetimeSpendCents int64
	ProductSlugs          []string
	StartsAt              pgtype.Timestamptz
	ExpiresAt             pgtype.Timestamptz
	Active                bool
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

// PromotionRedemption records one committed redemption. The unique
// (promotion_id, order_id) constraint gives settle at-most-once semantics.
type PromotionRedemption struct {
	ID            pgtype.UUID
	PromotionID   pgtype.UUID
	OrderID       pgtype.UUID
	UserID        pgtype.UUID
	DiscountCents int64
	CreatedAt     pgtype.Timestamptz
}

// Purchase is a supply purchase from a vendor.
type Purchase struct {
	ID              pgtype.UUID
	VendorName      string
	PurchaseDate    pgtype.Date
	ShippingCents   int64
	TaxCents        int64
	TotalCents      int64
	ReceiptImageUrl pgtype.Text
	Notes           pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// PurchaseItem categories: wax, fragrance, containers, wicks, packaging, other.
type PurchaseItem struct {
	ID            pgtype.UUID
	PurchaseID    pgtype.UUID
	Name          string
	Category      string
	Quantity      int64
	UnitCostCents int64
	Notes         pgtype.Text
	Position      int32
}

// Scent is a fragrance oil priced per ounce.
type Scent struct {
	ID             pgtype.UUID
	Name           string
	CostPerOzCents int64
	CreatedAt      pgtype.Timestamptz
}

// Blend is a named mix of scents whose component percents total 100.
type Blend struct {
	ID        pgtype.UUID
	Name      string
	CreatedAt pgtype.Timestamptz
}

// BlendComponent is one scent's share of a blend in whole percent.
type BlendComponent struct {
	ID      pgtype.UUID
	BlendID pgtype.UUID
	ScentID pgtype.UUID
	Percent int32
}

// Container is a vessel; WaterOz is its water-fill capacity.
type Container struct {
	ID        pgtype.UUID
	Name      string
	CostCents int64
	WaterOz   float64
	CreatedAt pgtype.Timestamptz
}

// Recipe binds a blend and container with pour parameters.
type Recipe struct {
	ID               pgtype.UUID
	Name             string
	BlendID          pgtype.UUID
	ContainerID      pgtype.UUID
	WickCostCents    int64
	WaxRatio         float64
	FragranceLoad    float64
	TargetPriceCents int64
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// InventoryItem is a batch of finished candles.
type InventoryItem struct {
	ID                 pgtype.UUID
	Sku                string
	Batch              string
	ProductionDate     pgtype.Date
	Quantity           int32
	MaterialCostCents  int64
	ContainerCostCents int64
	TargetPriceCents   int64
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// PageView is a raw storefront analytics event.
type PageView struct {
	ID        pgtype.UUID
	Path      string
	VisitorID pgtype.Text
	Referrer  pgtype.Text
	CreatedAt pgtype.Timestamptz
}

// MarketplaceListing tracks sync state of a variant on an external shop.
type MarketplaceListing struct {
	ID           pgtype.UUID
	VariantID    pgtype.UUID
	Marketplace  string
	ExternalID   pgtype.Text
	Status       string
	LastSyncedAt pgtype.Timestamptz
	LastError    pgtype.Text
	UpdatedAt    pgtype.Timestamptz
}

// DomainEvent is an append-only record of something that happened.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
