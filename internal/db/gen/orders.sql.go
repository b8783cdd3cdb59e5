package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (user_id, status, subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents, promo_code, shipping_name, shipping_addr)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, user_id, status, subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents, promo_code, shipping_name, shipping_addr, created_at, paid_at, fulfilled_at, cancelled_at
`

type CreateOrderParams struct {
	UserID        pgtype.UUID
	Status        string
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
	PromoCode     pgtype.Text
	ShippingName  pgtype.Text
	ShippingAddr  []byte
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID, arg.Status, arg.SubtotalCents, arg.DiscountCents, arg.TaxCents,
		arg.ShippingCents, arg.TotalCents, arg.PromoCode, arg.ShippingName, arg.ShippingAddr)
	return scanOrderRow(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, variant_id, product_slug, name, sku, qty, unit_price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateOrderItemParams struct {
	OrderID        pgtype.UUID
	VariantID      pgtype.UUID
	ProductSlug    string
	Name           string
	Sku            string
	Qty            int32
	UnitPriceCents int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, createOrderItem,
		arg.OrderID, arg.VariantID, arg.ProductSlug, arg.Name, arg.Sku, arg.Qty, arg.UnitPriceCents)
	return err
}

const getOrderByID = `
SELECT id, user_id, status, subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents, promo_code, shipping_name, shipping_addr, created_at, paid_at, fulfilled_at, cancelled_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByID, id)
	return scanOrderRow(row)
}

const listOrderItems = `
SELECT id, order_id, variant_id, product_slug, name, sku, qty, unit_price_cents
FROM order_items
WHERE order_id = $1
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductSlug, &it.Name, &it.Sku, &it.Qty, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const listOrdersByUser = `
SELECT id, user_id, status, subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents, promo_code, shipping_name, shipping_addr, created_at, paid_at, fulfilled_at, cancelled_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const markOrderPaid = `
UPDATE orders
SET status = 'PAID', paid_at = now()
WHERE id = $1 AND status = 'PENDING_PAYMENT'
RETURNING id, user_id, status, subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents, promo_code, shipping_name, shipping_addr, created_at, paid_at, fulfilled_at, cancelled_at
`

func (q *Queries) MarkOrderPaid(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderPaid, id)
	return scanOrderRow(row)
}

const updateOrderStatus = `
UPDATE orders
SET status = $2,
    fulfilled_at = CASE WHEN $2 = 'FULFILLED' THEN now() ELSE fulfilled_at END,
    cancelled_at = CASE WHEN $2 = 'CANCELLED' THEN now() ELSE cancelled_at END
WHERE id = $1
`

type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx, updateOrderStatus, arg.ID, arg.Status)
	return err
}

const countOrdersByUser = `
SELECT count(*)
FROM orders
WHERE user_id = $1
`

func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countOrdersByUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countCompletedOrdersByUser = `
SELECT count(*)
FROM orders
WHERE user_id = $1 AND status IN ('PAID', 'FULFILLED')
`

func (q *Queries) CountCompletedOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countCompletedOrdersByUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const sumLifetimeSpendByUser = `
SELECT COALESCE(sum(total_cents), 0)::bigint
FROM orders
WHERE user_id = $1 AND status IN ('PAID', 'FULFILLED')
`

func (q *Queries) SumLifetimeSpendByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, sumLifetimeSpendByUser, userID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

func scanOrderRow(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.SubtotalCents, &o.DiscountCents, &o.TaxCents,
		&o.ShippingCents, &o.TotalCents, &o.PromoCode, &o.ShippingName, &o.ShippingAddr,
		&o.CreatedAt, &o.PaidAt, &o.FulfilledAt, &o.CancelledAt)
	return o, err
}
