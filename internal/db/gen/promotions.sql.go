package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const promotionColumns = `id, code, name, kind, trigger_type, discount_percent, discount_amount_cents,
min_quantity, apply_to_quantity, min_order_cents, max_redemptions, max_per_customer,
current_redemptions, targeting, target_user_ids, min_order_count, min_lifetime_spend_cents,
product_slugs, starts_at, expires_at, active, created_at, updated_at`

const insertPromotion = `
INSERT INTO promotions (code, name, kind, trigger_type, discount_percent, discount_amount_cents,
  min_quantity, apply_to_quantity, min_order_cents, max_redemptions, max_per_customer,
  targeting, target_user_ids, min_order_count, min_lifetime_spend_cents, product_slugs,
  starts_at, expires_at, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING ` + promotionColumns

type InsertPromotionParams struct {
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
	Targeting             string
	TargetUserIds         []pgtype.UUID
	MinOrderCount         int32
	MinLifetimeSpendCents int64
	ProductSlugs          []string
	StartsAt              pgtype.Timestamptz
	ExpiresAt             pgtype.Timestamptz
	Active                bool
}

func (q *Queries) InsertPromotion(ctx context.Context, arg InsertPromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, insertPromotion,
		arg.Code, arg.Name, arg.Kind, arg.TriggerType, arg.DiscountPercent, arg.DiscountAmountCents,
		arg.MinQuantity, arg.ApplyToQuantity, arg.MinOrderCents, arg.MaxRedemptions, arg.MaxPerCustomer,
		arg.Targeting, arg.TargetUserIds, arg.MinOrderCount, arg.MinLifetimeSpendCents, arg.ProductSlugs,
		arg.StartsAt, arg.ExpiresAt, arg.Active)
	return scanPromotionRow(row)
}

const updatePromotion = `
UPDATE promotions
SET name = $2, kind = $3, trigger_type = $4, discount_percent = $5, discount_amount_cents = $6,
    min_quantity = $7, apply_to_quantity = $8, min_order_cents = $9, max_redemptions = $10,
    max_per_customer = $11, targeting = $12, target_user_ids = $13, min_order_count = $14,
    min_lifetime_spend_cents = $15, product_slugs = $16, starts_at = $17, expires_at = $18, active = $19,
    updated_at = now()
WHERE id = $1
RETURNING ` + promotionColumns

type UpdatePromotionParams struct {
	ID                    pgtype.UUID
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
	Targeting             string
	TargetUserIds         []pgtype.UUID
	MinOrderCount         int32
	MinLifetimeSpendCents int64
	ProductSlugs          []string
	StartsAt              pgtype.Timestamptz
	ExpiresAt             pgtype.Timestamptz
	Active                bool
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, updatePromotion,
		arg.ID, arg.Name, arg.Kind, arg.TriggerType, arg.DiscountPercent, arg.DiscountAmountCents,
		arg.MinQuantity, arg.ApplyToQuantity, arg.MinOrderCents, arg.MaxRedemptions, arg.MaxPerCustomer,
		arg.Targeting, arg.TargetUserIds, arg.MinOrderCount, arg.MinLifetimeSpendCents, arg.ProductSlugs,
		arg.StartsAt, arg.ExpiresAt, arg.Active)
	return scanPromotionRow(row)
}

const deletePromotion = `
DELETE FROM promotions
WHERE id = $1
`

func (q *Queries) DeletePromotion(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deletePromotion, id)
	return err
}

const getPromotionByID = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE id = $1
`

func (q *Queries) GetPromotionByID(ctx context.Context, id pgtype.UUID) (Promotion, error) {
	row := q.db.QueryRow(ctx, getPromotionByID, id)
	return scanPromotionRow(row)
}

const getPromotionByCode = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE upper(code) = upper($1)
`

func (q *Queries) GetPromotionByCode(ctx context.Context, code string) (Promotion, error) {
	row := q.db.QueryRow(ctx, getPromotionByCode, code)
	return scanPromotionRow(row)
}

const getPromotionByCodeForUpdate = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE upper(code) = upper($1)
FOR UPDATE
`

// GetPromotionByCodeForUpdate locks the row so redemption commits serialize.
func (q *Queries) GetPromotionByCodeForUpdate(ctx context.Context, code string) (Promotion, error) {
	row := q.db.QueryRow(ctx, getPromotionByCodeForUpdate, code)
	return scanPromotionRow(row)
}

const listPromotions = `
SELECT ` + promotionColumns + `
FROM promotions
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListPromotionsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListPromotions(ctx context.Context, arg ListPromotionsParams) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, listPromotions, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPromotions(rows)
}

const countPromotions = `
SELECT count(*) FROM promotions
`

func (q *Queries) CountPromotions(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countPromotions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listActiveAutomaticPromotions = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE active AND trigger_type = 'automatic'
ORDER BY created_at
`

func (q *Queries) ListActiveAutomaticPromotions(ctx context.Context) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, listActiveAutomaticPromotions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPromotions(rows)
}

const countRedemptionsByUser = `
SELECT count(*)
FROM promotion_redemptions
WHERE promotion_id = $1 AND user_id = $2
`

type CountRedemptionsByUserParams struct {
	PromotionID pgtype.UUID
	UserID      pgtype.UUID
}

func (q *Queries) CountRedemptionsByUser(ctx context.Context, arg CountRedemptionsByUserParams) (int64, error) {
	row := q.db.QueryRow(ctx, countRedemptionsByUser, arg.PromotionID, arg.UserID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getRedemptionByOrder = `
SELECT id, promotion_id, order_id, user_id, discount_cents, created_at
FROM promotion_redemptions
WHERE promotion_id = $1 AND order_id = $2
`

type GetRedemptionByOrderParams struct {
	PromotionID pgtype.UUID
	OrderID     pgtype.UUID
}

func (q *Queries) GetRedemptionByOrder(ctx context.Context, arg GetRedemptionByOrderParams) (PromotionRedemption, error) {
	row := q.db.QueryRow(ctx, getRedemptionByOrder, arg.PromotionID, arg.OrderID)
	var r PromotionRedemption
	err := row.Scan(&r.ID, &r.PromotionID, &r.OrderID, &r.UserID, &r.DiscountCents, &r.CreatedAt)
	return r, err
}

const insertRedemption = `
INSERT INTO promotion_redemptions (promotion_id, order_id, user_id, discount_cents)
VALUES ($1, $2, $3, $4)
`

type InsertRedemptionParams struct {
	PromotionID   pgtype.UUID
	OrderID       pgtype.UUID
	UserID        pgtype.UUID
	DiscountCents int64
}

func (q *Queries) InsertRedemption(ctx context.Context, arg InsertRedemptionParams) error {
	_, err := q.db.Exec(ctx, insertRedemption, arg.PromotionID, arg.OrderID, arg.UserID, arg.DiscountCents)
	return err
}

const incrementPromotionRedemptions = `
UPDATE promotions
SET current_redemptions = current_redemptions + 1, updated_at = now()
WHERE id = $1
`

func (q *Queries) IncrementPromotionRedemptions(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, incrementPromotionRedemptions, id)
	return err
}

func scanPromotionRow(row rowScanner) (Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Kind, &p.TriggerType, &p.DiscountPercent, &p.DiscountAmountCents,
		&p.MinQuantity, &p.ApplyToQuantity, &p.MinOrderCents, &p.MaxRedemptions, &p.MaxPerCustomer,
		&p.CurrentRedemptions, &p.Targeting, &p.TargetUserIds, &p.MinOrderCount, &p.MinLifetimeSpendCents,
		&p.ProductSlugs, &p.StartsAt, &p.ExpiresAt, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPromotions(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]Promotion, error) {
	var items []Promotion
	for rows.Next() {
		p, err := scanPromotionRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
