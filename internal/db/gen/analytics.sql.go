package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPageView = `
INSERT INTO page_views (path, visitor_id, referrer)
VALUES ($1, $2, $3)
`

type InsertPageViewParams struct {
	Path      string
	VisitorID pgtype.Text
	Referrer  pgtype.Text
}

func (q *Queries) InsertPageView(ctx context.Context, arg InsertPageViewParams) error {
	_, err := q.db.Exec(ctx, insertPageView, arg.Path, arg.VisitorID, arg.Referrer)
	return err
}

const dailyPageViews = `
SELECT date_trunc('day', created_at)::date AS day, count(*)
FROM page_views
WHERE created_at >= $1 AND created_at < $2
GROUP BY 1
ORDER BY 1
`

type DailyPageViewsParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type DailyPageViewsRow struct {
	Day   pgtype.Date
	Count int64
}

func (q *Queries) DailyPageViews(ctx context.Context, arg DailyPageViewsParams) ([]DailyPageViewsRow, error) {
	rows, err := q.db.Query(ctx, dailyPageViews, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyPageViewsRow
	for rows.Next() {
		var r DailyPageViewsRow
		if err := rows.Scan(&r.Day, &r.Count); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const dailySales = `
SELECT date_trunc('day', paid_at)::date AS day,
       count(*) AS orders,
       COALESCE(sum(total_cents), 0)::bigint AS revenue_cents,
       COALESCE(sum(discount_cents), 0)::bigint AS discount_cents
FROM orders
WHERE paid_at IS NOT NULL AND paid_at >= $1 AND paid_at < $2
GROUP BY 1
ORDER BY 1
`

type DailySalesParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type DailySalesRow struct {
	Day           pgtype.Date
	Orders        int64
	RevenueCents  int64
	DiscountCents int64
}

func (q *Queries) DailySales(ctx context.Context, arg DailySalesParams) ([]DailySalesRow, error) {
	rows, err := q.db.Query(ctx, dailySales, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailySalesRow
	for rows.Next() {
		var r DailySalesRow
		if err := rows.Scan(&r.Day, &r.Orders, &r.RevenueCents, &r.DiscountCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const topProducts = `
SELECT oi.product_slug, oi.name,
       sum(oi.qty)::bigint AS units,
       sum(oi.qty::bigint * oi.unit_price_cents)::bigint AS revenue_cents
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.paid_at IS NOT NULL AND o.paid_at >= $1 AND o.paid_at < $2
GROUP BY oi.product_slug, oi.name
ORDER BY revenue_cents DESC
LIMIT $3
`

type TopProductsParams struct {
	From  pgtype.Timestamptz
	To    pgtype.Timestamptz
	Limit int32
}

type TopProductsRow struct {
	ProductSlug  string
	Name         string
	Units        int64
	RevenueCents int64
}

func (q *Queries) TopProducts(ctx context.Context, arg TopProductsParams) ([]TopProductsRow, error) {
	rows, err := q.db.Query(ctx, topProducts, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopProductsRow
	for rows.Next() {
		var r TopProductsRow
		if err := rows.Scan(&r.ProductSlug, &r.Name, &r.Units, &r.RevenueCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
