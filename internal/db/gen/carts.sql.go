package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCart = `
INSERT INTO carts (user_id)
VALUES ($1)
RETURNING id, user_id, applied_promo_code, created_at, updated_at
`

func (q *Queries) CreateCart(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, createCart, userID)
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AppliedPromoCode, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCartByID = `
SELECT id, user_id, applied_promo_code, created_at, updated_at
FROM carts
WHERE id = $1
`

func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, getCartByID, id)
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AppliedPromoCode, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCartItems = `
SELECT id, cart_id, variant_id, product_slug, name, sku, qty, unit_price_cents, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at
`

func (q *Queries) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.VariantID, &it.ProductSlug, &it.Name, &it.Sku, &it.Qty, &it.UnitPriceCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const upsertCartItem = `
INSERT INTO cart_items (cart_id, variant_id, product_slug, name, sku, qty, unit_price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (cart_id, variant_id)
DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty, unit_price_cents = EXCLUDED.unit_price_cents
RETURNING id, cart_id, variant_id, product_slug, name, sku, qty, unit_price_cents, created_at
`

type UpsertCartItemParams struct {
	CartID         pgtype.UUID
	VariantID      pgtype.UUID
	ProductSlug    string
	Name           string
	Sku            string
	Qty            int32
	UnitPriceCents int64
}

func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, upsertCartItem,
		arg.CartID, arg.VariantID, arg.ProductSlug, arg.Name, arg.Sku, arg.Qty, arg.UnitPriceCents)
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.VariantID, &it.ProductSlug, &it.Name, &it.Sku, &it.Qty, &it.UnitPriceCents, &it.CreatedAt)
	return it, err
}

const setCartItemQty = `
UPDATE cart_items
SET qty = $3
WHERE cart_id = $1 AND id = $2
`

type SetCartItemQtyParams struct {
	CartID pgtype.UUID
	ItemID pgtype.UUID
	Qty    int32
}

func (q *Queries) SetCartItemQty(ctx context.Context, arg SetCartItemQtyParams) error {
	_, err := q.db.Exec(ctx, setCartItemQty, arg.CartID, arg.ItemID, arg.Qty)
	return err
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE cart_id = $1 AND id = $2
`

type DeleteCartItemParams struct {
	CartID pgtype.UUID
	ItemID pgtype.UUID
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx, deleteCartItem, arg.CartID, arg.ItemID)
	return err
}

const setCartPromoCode = `
UPDATE carts
SET applied_promo_code = $2, updated_at = now()
WHERE id = $1
`

type SetCartPromoCodeParams struct {
	ID   pgtype.UUID
	Code pgtype.Text
}

func (q *Queries) SetCartPromoCode(ctx context.Context, arg SetCartPromoCodeParams) error {
	_, err := q.db.Exec(ctx, setCartPromoCode, arg.ID, arg.Code)
	return err
}

const clearCart = `
DELETE FROM cart_items
WHERE cart_id = $1
`

func (q *Queries) ClearCart(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCart, cartID)
	return err
}
