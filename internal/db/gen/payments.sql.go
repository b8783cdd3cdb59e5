package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPayment = `
INSERT INTO payments (order_id, provider, provider_ref, status, amount_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, provider, provider_ref, status, amount_cents, created_at, updated_at
`

type InsertPaymentParams struct {
	OrderID     pgtype.UUID
	Provider    string
	ProviderRef pgtype.Text
	Status      string
	AmountCents int64
}

func (q *Queries) InsertPayment(ctx context.Context, arg InsertPaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, insertPayment, arg.OrderID, arg.Provider, arg.ProviderRef, arg.Status, arg.AmountCents)
	return scanPaymentRow(row)
}

const getPaymentByProviderRef = `
SELECT id, order_id, provider, provider_ref, status, amount_cents, created_at, updated_at
FROM payments
WHERE provider = $1 AND provider_ref = $2
`

type GetPaymentByProviderRefParams struct {
	Provider    string
	ProviderRef pgtype.Text
}

func (q *Queries) GetPaymentByProviderRef(ctx context.Context, arg GetPaymentByProviderRefParams) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByProviderRef, arg.Provider, arg.ProviderRef)
	return scanPaymentRow(row)
}

const getPaymentByOrder = `
SELECT id, order_id, provider, provider_ref, status, amount_cents, created_at, updated_at
FROM payments
WHERE order_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrder, orderID)
	return scanPaymentRow(row)
}

const updatePaymentStatus = `
UPDATE payments
SET status = $2, updated_at = now()
WHERE id = $1
`

type UpdatePaymentStatusParams struct {
	ID     pgtype.UUID
	Status string
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) error {
	_, err := q.db.Exec(ctx, updatePaymentStatus, arg.ID, arg.Status)
	return err
}

func scanPaymentRow(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.ProviderRef, &p.Status, &p.AmountCents, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
