package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertMarketplaceListing = `
INSERT INTO marketplace_listings (variant_id, marketplace, status)
VALUES ($1, $2, 'pending')
ON CONFLICT (variant_id, marketplace) DO NOTHING
`

type UpsertMarketplaceListingParams struct {
	VariantID   pgtype.UUID
	Marketplace string
}

func (q *Queries) UpsertMarketplaceListing(ctx context.Context, arg UpsertMarketplaceListingParams) error {
	_, err := q.db.Exec(ctx, upsertMarketplaceListing, arg.VariantID, arg.Marketplace)
	return err
}

const markListingSynced = `
UPDATE marketplace_listings
SET status = 'synced', external_id = $3, last_synced_at = now(), last_error = NULL, updated_at = now()
WHERE variant_id = $1 AND marketplace = $2
`

type MarkListingSyncedParams struct {
	VariantID   pgtype.UUID
	Marketplace string
	ExternalID  pgtype.Text
}

func (q *Queries) MarkListingSynced(ctx context.Context, arg MarkListingSyncedParams) error {
	_, err := q.db.Exec(ctx, markListingSynced, arg.VariantID, arg.Marketplace, arg.ExternalID)
	return err
}

const markListingFailed = `
UPDATE marketplace_listings
SET status = 'error', last_error = $3, updated_at = now()
WHERE variant_id = $1 AND marketplace = $2
`

type MarkListingFailedParams struct {
	VariantID   pgtype.UUID
	Marketplace string
	LastError   pgtype.Text
}

func (q *Queries) MarkListingFailed(ctx context.Context, arg MarkListingFailedParams) error {
	_, err := q.db.Exec(ctx, markListingFailed, arg.VariantID, arg.Marketplace, arg.LastError)
	return err
}

const listMarketplaceListings = `
SELECT id, variant_id, marketplace, external_id, status, last_synced_at, last_error, updated_at
FROM marketplace_listings
WHERE marketplace = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListMarketplaceListings(ctx context.Context, marketplace string) ([]MarketplaceListing, error) {
	rows, err := q.db.Query(ctx, listMarketplaceListings, marketplace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MarketplaceListing
	for rows.Next() {
		var l MarketplaceListing
		if err := rows.Scan(&l.ID, &l.VariantID, &l.Marketplace, &l.ExternalID, &l.Status, &l.LastSyncedAt, &l.LastError, &l.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const getMarketplaceListing = `
SELECT id, variant_id, marketplace, external_id, status, last_synced_at, last_error, updated_at
FROM marketplace_listings
WHERE variant_id = $1 AND marketplace = $2
`

type GetMarketplaceListingParams struct {
	VariantID   pgtype.UUID
	Marketplace string
}

func (q *Queries) GetMarketplaceListing(ctx context.Context, arg GetMarketplaceListingParams) (MarketplaceListing, error) {
	row := q.db.QueryRow(ctx, getMarketplaceListing, arg.VariantID, arg.Marketplace)
	var l MarketplaceListing
	err := row.Scan(&l.ID, &l.VariantID, &l.Marketplace, &l.ExternalID, &l.Status, &l.LastSyncedAt, &l.LastError, &l.UpdatedAt)
	return l, err
}
