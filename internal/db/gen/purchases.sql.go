package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPurchase = `
INSERT INTO purchases (vendor_name, purchase_date, shipping_cents, tax_cents, total_cents, receipt_image_url, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, vendor_name, purchase_date, shipping_cents, tax_cents, total_cents, receipt_image_url, notes, created_at, updated_at
`

type InsertPurchaseParams struct {
	VendorName      string
	PurchaseDate    pgtype.Date
	ShippingCents   int64
	TaxCents        int64
	TotalCents      int64
	ReceiptImageUrl pgtype.Text
	Notes           pgtype.Text
}

func (q *Queries) InsertPurchase(ctx context.Context, arg InsertPurchaseParams) (Purchase, error) {
	row := q.db.QueryRow(ctx, insertPurchase,
		arg.VendorName, arg.PurchaseDate, arg.ShippingCents, arg.TaxCents, arg.TotalCents, arg.ReceiptImageUrl, arg.Notes)
	return scanPurchaseRow(row)
}

const updatePurchase = `
UPDATE purchases
SET vendor_name = $2, purchase_date = $3, shipping_cents = $4, tax_cents = $5, total_cents = $6,
    receipt_image_url = $7, notes = $8, updated_at = now()
WHERE id = $1
RETURNING id, vendor_name, purchase_date, shipping_cents, tax_cents, total_cents, receipt_image_url, notes, created_at, updated_at
`

type UpdatePurchaseParams struct {
	ID              pgtype.UUID
	VendorName      string
	PurchaseDate    pgtype.Date
	ShippingCents   int64
	TaxCents        int64
	TotalCents      int64
	ReceiptImageUrl pgtype.Text
	Notes           pgtype.Text
}

func (q *Queries) UpdatePurchase(ctx context.Context, arg UpdatePurchaseParams) (Purchase, error) {
	row := q.db.QueryRow(ctx, updatePurchase,
		arg.ID, arg.VendorName, arg.PurchaseDate, arg.ShippingCents, arg.TaxCents, arg.TotalCents, arg.ReceiptImageUrl, arg.Notes)
	return scanPurchaseRow(row)
}

const deletePurchase = `
DELETE FROM purchases
WHERE id = $1
`

func (q *Queries) DeletePurchase(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deletePurchase, id)
	return err
}

const getPurchaseByID = `
SELECT id, vendor_name, purchase_date, shipping_cents, tax_cents, total_cents, receipt_image_url, notes, created_at, updated_at
FROM purchases
WHERE id = $1
`

func (q *Queries) GetPurchaseByID(ctx context.Context, id pgtype.UUID) (Purchase, error) {
	row := q.db.QueryRow(ctx, getPurchaseByID, id)
	return scanPurchaseRow(row)
}

const listPurchases = `
SELECT id, vendor_name, purchase_date, shipping_cents, tax_cents, total_cents, receipt_image_url, notes, created_at, updated_at
FROM purchases
ORDER BY purchase_date DESC, created_at DESC
LIMIT $1 OFFSET $2
`

type ListPurchasesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListPurchases(ctx context.Context, arg ListPurchasesParams) ([]Purchase, error) {
	rows, err := q.db.Query(ctx, listPurchases, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Purchase
	for rows.Next() {
		p, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countPurchases = `
SELECT count(*) FROM purchases
`

func (q *Queries) CountPurchases(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countPurchases)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertPurchaseItem = `
INSERT INTO purchase_items (purchase_id, name, category, quantity, unit_cost_cents, notes, position)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertPurchaseItemParams struct {
	PurchaseID    pgtype.UUID
	Name          string
	Category      string
	Quantity      int64
	UnitCostCents int64
	Notes         pgtype.Text
	Position      int32
}

func (q *Queries) InsertPurchaseItem(ctx context.Context, arg InsertPurchaseItemParams) error {
	_, err := q.db.Exec(ctx, insertPurchaseItem,
		arg.PurchaseID, arg.Name, arg.Category, arg.Quantity, arg.UnitCostCents, arg.Notes, arg.Position)
	return err
}

const deletePurchaseItems = `
DELETE FROM purchase_items
WHERE purchase_id = $1
`

func (q *Queries) DeletePurchaseItems(ctx context.Context, purchaseID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deletePurchaseItems, purchaseID)
	return err
}

const listPurchaseItems = `
SELECT id, purchase_id, name, category, quantity, unit_cost_cents, notes, position
FROM purchase_items
WHERE purchase_id = $1
ORDER BY position
`

func (q *Queries) ListPurchaseItems(ctx context.Context, purchaseID pgtype.UUID) ([]PurchaseItem, error) {
	rows, err := q.db.Query(ctx, listPurchaseItems, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.Name, &it.Category, &it.Quantity, &it.UnitCostCents, &it.Notes, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanPurchaseRow(row rowScanner) (Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.VendorName, &p.PurchaseDate, &p.ShippingCents, &p.TaxCents, &p.TotalCents,
		&p.ReceiptImageUrl, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
