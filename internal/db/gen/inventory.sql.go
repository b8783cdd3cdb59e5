package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertInventoryItem = `
INSERT INTO inventory_items (sku, batch, production_date, quantity, material_cost_cents, container_cost_cents, target_price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, sku, batch, production_date, quantity, material_cost_cents, container_cost_cents, target_price_cents, created_at, updated_at
`

type InsertInventoryItemParams struct {
	Sku                string
	Batch              string
	ProductionDate     pgtype.Date
	Quantity           int32
	MaterialCostCents  int64
	ContainerCostCents int64
	TargetPriceCents   int64
}

func (q *Queries) InsertInventoryItem(ctx context.Context, arg InsertInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, insertInventoryItem,
		arg.Sku, arg.Batch, arg.ProductionDate, arg.Quantity, arg.MaterialCostCents, arg.ContainerCostCents, arg.TargetPriceCents)
	return scanInventoryRow(row)
}

const listInventoryItems = `
SELECT id, sku, batch, production_date, quantity, material_cost_cents, container_cost_cents, target_price_cents, created_at, updated_at
FROM inventory_items
ORDER BY production_date DESC, sku
LIMIT $1 OFFSET $2
`

type ListInventoryItemsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListInventoryItems(ctx context.Context, arg ListInventoryItemsParams) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItems, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const getInventoryItemByID = `
SELECT id, sku, batch, production_date, quantity, material_cost_cents, container_cost_cents, target_price_cents, created_at, updated_at
FROM inventory_items
WHERE id = $1
`

func (q *Queries) GetInventoryItemByID(ctx context.Context, id pgtype.UUID) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, getInventoryItemByID, id)
	return scanInventoryRow(row)
}

const adjustInventoryQuantity = `
UPDATE inventory_items
SET quantity = quantity + $2, updated_at = now()
WHERE id = $1 AND quantity + $2 >= 0
RETURNING id, sku, batch, production_date, quantity, material_cost_cents, container_cost_cents, target_price_cents, created_at, updated_at
`

type AdjustInventoryQuantityParams struct {
	ID    pgtype.UUID
	Delta int32
}

func (q *Queries) AdjustInventoryQuantity(ctx context.Context, arg AdjustInventoryQuantityParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, adjustInventoryQuantity, arg.ID, arg.Delta)
	return scanInventoryRow(row)
}

const deleteInventoryItem = `
DELETE FROM inventory_items
WHERE id = $1
`

func (q *Queries) DeleteInventoryItem(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteInventoryItem, id)
	return err
}

const inventoryValuation = `
SELECT COALESCE(count(*), 0)::bigint AS batches,
       COALESCE(sum(quantity), 0)::bigint AS units,
       COALESCE(sum(quantity::bigint * (material_cost_cents + container_cost_cents)), 0)::bigint AS cost_cents,
       COALESCE(sum(quantity::bigint * target_price_cents), 0)::bigint AS retail_cents
FROM inventory_items
`

type InventoryValuationRow struct {
	Batches     int64
	Units       int64
	CostCents   int64
	RetailCents int64
}

func (q *Queries) InventoryValuation(ctx context.Context) (InventoryValuationRow, error) {
	row := q.db.QueryRow(ctx, inventoryValuation)
	var v InventoryValuationRow
	err := row.Scan(&v.Batches, &v.Units, &v.CostCents, &v.RetailCents)
	return v, err
}

func scanInventoryRow(row rowScanner) (InventoryItem, error) {
	var it InventoryItem
	err := row.Scan(&it.ID, &it.Sku, &it.Batch, &it.ProductionDate, &it.Quantity,
		&it.MaterialCostCents, &it.ContainerCostCents, &it.TargetPriceCents, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}
