package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listProductsPublic = `
SELECT p.id, p.slug, p.name, p.description, p.featured,
       min(v.price_cents) AS price_from,
       bool_or(v.stock > 0) AS in_stock
FROM products p
JOIN product_variants v ON v.product_id = p.id AND v.active
WHERE p.active
  AND ($1::text = '' OR p.name ILIKE '%' || $1 || '%')
  AND ($2::boolean IS FALSE OR p.featured)
GROUP BY p.id
ORDER BY p.featured DESC, p.name
LIMIT $3 OFFSET $4
`

type ListProductsPublicParams struct {
	Query        string
	FeaturedOnly bool
	Limit        int32
	Offset       int32
}

type ListProductsPublicRow struct {
	ID          pgtype.UUID
	Slug        string
	Name        string
	Description pgtype.Text
	Featured    bool
	PriceFrom   int64
	InStock     bool
}

func (q *Queries) ListProductsPublic(ctx context.Context, arg ListProductsPublicParams) ([]ListProductsPublicRow, error) {
	rows, err := q.db.Query(ctx, listProductsPublic, arg.Query, arg.FeaturedOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListProductsPublicRow
	for rows.Next() {
		var r ListProductsPublicRow
		if err := rows.Scan(&r.ID, &r.Slug, &r.Name, &r.Description, &r.Featured, &r.PriceFrom, &r.InStock); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countProductsPublic = `
SELECT count(*)
FROM products p
WHERE p.active
  AND ($1::text = '' OR p.name ILIKE '%' || $1 || '%')
  AND ($2::boolean IS FALSE OR p.featured)
`

type CountProductsPublicParams struct {
	Query        string
	FeaturedOnly bool
}

func (q *Queries) CountProductsPublic(ctx context.Context, arg CountProductsPublicParams) (int64, error) {
	row := q.db.QueryRow(ctx, countProductsPublic, arg.Query, arg.FeaturedOnly)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getProductBySlug = `
SELECT id, slug, name, description, story, featured, active, created_at, updated_at
FROM products
WHERE slug = $1 AND active
`

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := q.db.QueryRow(ctx, getProductBySlug, slug)
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Story, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProductByID = `
SELECT id, slug, name, description, story, featured, active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProductByID, id)
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Story, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listVariantsByProduct = `
SELECT id, product_id, sku, scent, size_oz, price_cents, stock, active, created_at, updated_at
FROM product_variants
WHERE product_id = $1 AND active
ORDER BY size_oz, scent
`

func (q *Queries) ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, listVariantsByProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVariants(rows)
}

const getVariantByID = `
SELECT id, product_id, sku, scent, size_oz, price_cents, stock, active, created_at, updated_at
FROM product_variants
WHERE id = $1
`

func (q *Queries) GetVariantByID(ctx context.Context, id pgtype.UUID) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, getVariantByID, id)
	return scanVariantRow(row)
}

const getVariantBySKU = `
SELECT id, product_id, sku, scent, size_oz, price_cents, stock, active, created_at, updated_at
FROM product_variants
WHERE sku = $1
`

func (q *Queries) GetVariantBySKU(ctx context.Context, sku string) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, getVariantBySKU, sku)
	return scanVariantRow(row)
}

const listActiveVariants = `
SELECT v.id, v.product_id, v.sku, v.scent, v.size_oz, v.price_cents, v.stock, v.active, v.created_at, v.updated_at
FROM product_variants v
JOIN products p ON p.id = v.product_id
WHERE v.active AND p.active
ORDER BY v.sku
`

// ListActiveVariants feeds the marketplace sync with every sellable variant.
func (q *Queries) ListActiveVariants(ctx context.Context) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, listActiveVariants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVariants(rows)
}

const listRelatedProducts = `
SELECT p.id, p.slug, p.name, p.description, p.featured,
       min(v.price_cents) AS price_from,
       bool_or(v.stock > 0) AS in_stock
FROM products p
JOIN product_variants v ON v.product_id = p.id AND v.active
WHERE p.active AND p.id <> $1
GROUP BY p.id
ORDER BY p.featured DESC, random()
LIMIT $2
`

type ListRelatedProductsParams struct {
	ExcludeID pgtype.UUID
	Limit     int32
}

func (q *Queries) ListRelatedProducts(ctx context.Context, arg ListRelatedProductsParams) ([]ListProductsPublicRow, error) {
	rows, err := q.db.Query(ctx, listRelatedProducts, arg.ExcludeID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListProductsPublicRow
	for rows.Next() {
		var r ListProductsPublicRow
		if err := rows.Scan(&r.ID, &r.Slug, &r.Name, &r.Description, &r.Featured, &r.PriceFrom, &r.InStock); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createProduct = `
INSERT INTO products (slug, name, description, story, featured, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, slug, name, description, story, featured, active, created_at, updated_at
`

type CreateProductParams struct {
	Slug        string
	Name        string
	Description pgtype.Text
	Story       pgtype.Text
	Featured    bool
	Active      bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct, arg.Slug, arg.Name, arg.Description, arg.Story, arg.Featured, arg.Active)
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Story, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const updateProduct = `
UPDATE products
SET name = $2, description = $3, story = $4, featured = $5, active = $6, updated_at = now()
WHERE id = $1
RETURNING id, slug, name, description, story, featured, active, created_at, updated_at
`

type UpdateProductParams struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Story       pgtype.Text
	Featured    bool
	Active      bool
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct, arg.ID, arg.Name, arg.Description, arg.Story, arg.Featured, arg.Active)
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Story, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createVariant = `
INSERT INTO product_variants (product_id, sku, scent, size_oz, price_cents, stock, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, product_id, sku, scent, size_oz, price_cents, stock, active, created_at, updated_at
`

type CreateVariantParams struct {
	ProductID  pgtype.UUID
	Sku        string
	Scent      string
	SizeOz     int32
	PriceCents int64
	Stock      int32
	Active     bool
}

func (q *Queries) CreateVariant(ctx context.Context, arg CreateVariantParams) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, createVariant, arg.ProductID, arg.Sku, arg.Scent, arg.SizeOz, arg.PriceCents, arg.Stock, arg.Active)
	return scanVariantRow(row)
}

const adjustVariantStock = `
UPDATE product_variants
SET stock = stock + $2, updated_at = now()
WHERE id = $1 AND stock + $2 >= 0
RETURNING stock
`

type AdjustVariantStockParams struct {
	ID    pgtype.UUID
	Delta int32
}

func (q *Queries) AdjustVariantStock(ctx context.Context, arg AdjustVariantStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, adjustVariantStock, arg.ID, arg.Delta)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariantRow(row rowScanner) (ProductVariant, error) {
	var v ProductVariant
	err := row.Scan(&v.ID, &v.ProductID, &v.Sku, &v.Scent, &v.SizeOz, &v.PriceCents, &v.Stock, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func scanVariants(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]ProductVariant, error) {
	var items []ProductVariant
	for rows.Next() {
		v, err := scanVariantRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
