package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertScent = `
INSERT INTO scents (name, cost_per_oz_cents)
VALUES ($1, $2)
RETURNING id, name, cost_per_oz_cents, created_at
`

type InsertScentParams struct {
	Name           string
	CostPerOzCents int64
}

func (q *Queries) InsertScent(ctx context.Context, arg InsertScentParams) (Scent, error) {
	row := q.db.QueryRow(ctx, insertScent, arg.Name, arg.CostPerOzCents)
	var s Scent
	err := row.Scan(&s.ID, &s.Name, &s.CostPerOzCents, &s.CreatedAt)
	return s, err
}

const listScents = `
SELECT id, name, cost_per_oz_cents, created_at
FROM scents
ORDER BY name
`

func (q *Queries) ListScents(ctx context.Context) ([]Scent, error) {
	rows, err := q.db.Query(ctx, listScents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Scent
	for rows.Next() {
		var s Scent
		if err := rows.Scan(&s.ID, &s.Name, &s.CostPerOzCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const getScentByID = `
SELECT id, name, cost_per_oz_cents, created_at
FROM scents
WHERE id = $1
`

func (q *Queries) GetScentByID(ctx context.Context, id pgtype.UUID) (Scent, error) {
	row := q.db.QueryRow(ctx, getScentByID, id)
	var s Scent
	err := row.Scan(&s.ID, &s.Name, &s.CostPerOzCents, &s.CreatedAt)
	return s, err
}

const updateScent = `
UPDATE scents
SET name = $2, cost_per_oz_cents = $3
WHERE id = $1
`

type UpdateScentParams struct {
	ID             pgtype.UUID
	Name           string
	CostPerOzCents int64
}

func (q *Queries) UpdateScent(ctx context.Context, arg UpdateScentParams) error {
	_, err := q.db.Exec(ctx, updateScent, arg.ID, arg.Name, arg.CostPerOzCents)
	return err
}

const deleteScent = `
DELETE FROM scents
WHERE id = $1
`

func (q *Queries) DeleteScent(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteScent, id)
	return err
}

const insertBlend = `
INSERT INTO blends (name)
VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) InsertBlend(ctx context.Context, name string) (Blend, error) {
	row := q.db.QueryRow(ctx, insertBlend, name)
	var b Blend
	err := row.Scan(&b.ID, &b.Name, &b.CreatedAt)
	return b, err
}

const listBlends = `
SELECT id, name, created_at
FROM blends
ORDER BY name
`

func (q *Queries) ListBlends(ctx context.Context) ([]Blend, error) {
	rows, err := q.db.Query(ctx, listBlends)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Blend
	for rows.Next() {
		var b Blend
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const getBlendByID = `
SELECT id, name, created_at
FROM blends
WHERE id = $1
`

func (q *Queries) GetBlendByID(ctx context.Context, id pgtype.UUID) (Blend, error) {
	row := q.db.QueryRow(ctx, getBlendByID, id)
	var b Blend
	err := row.Scan(&b.ID, &b.Name, &b.CreatedAt)
	return b, err
}

const deleteBlend = `
DELETE FROM blends
WHERE id = $1
`

func (q *Queries) DeleteBlend(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteBlend, id)
	return err
}

const insertBlendComponent = `
INSERT INTO blend_components (blend_id, scent_id, percent)
VALUES ($1, $2, $3)
`

type InsertBlendComponentParams struct {
	BlendID pgtype.UUID
	ScentID pgtype.UUID
	Percent int32
}

func (q *Queries) InsertBlendComponent(ctx context.Context, arg InsertBlendComponentParams) error {
	_, err := q.db.Exec(ctx, insertBlendComponent, arg.BlendID, arg.ScentID, arg.Percent)
	return err
}

const deleteBlendComponents = `
DELETE FROM blend_components
WHERE blend_id = $1
`

func (q *Queries) DeleteBlendComponents(ctx context.Context, blendID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteBlendComponents, blendID)
	return err
}

const listBlendComponents = `
SELECT bc.id, bc.blend_id, bc.scent_id, bc.percent, s.name, s.cost_per_oz_cents
FROM blend_components bc
JOIN scents s ON s.id = bc.scent_id
WHERE bc.blend_id = $1
ORDER BY bc.percent DESC, s.name
`

type ListBlendComponentsRow struct {
	ID             pgtype.UUID
	BlendID        pgtype.UUID
	ScentID        pgtype.UUID
	Percent        int32
	ScentName      string
	CostPerOzCents int64
}

func (q *Queries) ListBlendComponents(ctx context.Context, blendID pgtype.UUID) ([]ListBlendComponentsRow, error) {
	rows, err := q.db.Query(ctx, listBlendComponents, blendID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListBlendComponentsRow
	for rows.Next() {
		var r ListBlendComponentsRow
		if err := rows.Scan(&r.ID, &r.BlendID, &r.ScentID, &r.Percent, &r.ScentName, &r.CostPerOzCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const insertContainer = `
INSERT INTO containers (name, cost_cents, water_oz)
VALUES ($1, $2, $3)
RETURNING id, name, cost_cents, water_oz, created_at
`

type InsertContainerParams struct {
	Name      string
	CostCents int64
	WaterOz   float64
}

func (q *Queries) InsertContainer(ctx context.Context, arg InsertContainerParams) (Container, error) {
	row := q.db.QueryRow(ctx, insertContainer, arg.Name, arg.CostCents, arg.WaterOz)
	var c Container
	err := row.Scan(&c.ID, &c.Name, &c.CostCents, &c.WaterOz, &c.CreatedAt)
	return c, err
}

const listContainers = `
SELECT id, name, cost_cents, water_oz, created_at
FROM containers
ORDER BY name
`

func (q *Queries) ListContainers(ctx context.Context) ([]Container, error) {
	rows, err := q.db.Query(ctx, listContainers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Container
	for rows.Next() {
		var c Container
		if err := rows.Scan(&c.ID, &c.Name, &c.CostCents, &c.WaterOz, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getContainerByID = `
SELECT id, name, cost_cents, water_oz, created_at
FROM containers
WHERE id = $1
`

func (q *Queries) GetContainerByID(ctx context.Context, id pgtype.UUID) (Container, error) {
	row := q.db.QueryRow(ctx, getContainerByID, id)
	var c Container
	err := row.Scan(&c.ID, &c.Name, &c.CostCents, &c.WaterOz, &c.CreatedAt)
	return c, err
}

const deleteContainer = `
DELETE FROM containers
WHERE id = $1
`

func (q *Queries) DeleteContainer(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteContainer, id)
	return err
}

const insertRecipe = `
INSERT INTO recipes (name, blend_id, container_id, wick_cost_cents, wax_ratio, fragrance_load, target_price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, blend_id, container_id, wick_cost_cents, wax_ratio, fragrance_load, target_price_cents, created_at, updated_at
`

type InsertRecipeParams struct {
	Name             string
	BlendID          pgtype.UUID
	ContainerID      pgtype.UUID
	WickCostCents    int64
	WaxRatio         float64
	FragranceLoad    float64
	TargetPriceCents int64
}

func (q *Queries) InsertRecipe(ctx context.Context, arg InsertRecipeParams) (Recipe, error) {
	row := q.db.QueryRow(ctx, insertRecipe,
		arg.Name, arg.BlendID, arg.ContainerID, arg.WickCostCents, arg.WaxRatio, arg.FragranceLoad, arg.TargetPriceCents)
	return scanRecipeRow(row)
}

const updateRecipe = `
UPDATE recipes
SET name = $2, blend_id = $3, container_id = $4, wick_cost_cents = $5, wax_ratio = $6,
    fragrance_load = $7, target_price_cents = $8, updated_at = now()
WHERE id = $1
RETURNING id, name, blend_id, container_id, wick_cost_cents, wax_ratio, fragrance_load, target_price_cents, created_at, updated_at
`

type UpdateRecipeParams struct {
	ID               pgtype.UUID
	Name             string
	BlendID          pgtype.UUID
	ContainerID      pgtype.UUID
	WickCostCents    int64
	WaxRatio         float64
	FragranceLoad    float64
	TargetPriceCents int64
}

func (q *Queries) UpdateRecipe(ctx context.Context, arg UpdateRecipeParams) (Recipe, error) {
	row := q.db.QueryRow(ctx, updateRecipe,
		arg.ID, arg.Name, arg.BlendID, arg.ContainerID, arg.WickCostCents, arg.WaxRatio, arg.FragranceLoad, arg.TargetPriceCents)
	return scanRecipeRow(row)
}

const deleteRecipe = `
DELETE FROM recipes
WHERE id = $1
`

func (q *Queries) DeleteRecipe(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteRecipe, id)
	return err
}

const getRecipeByID = `
SELECT id, name, blend_id, container_id, wick_cost_cents, wax_ratio, fragrance_load, target_price_cents, created_at, updated_at
FROM recipes
WHERE id = $1
`

func (q *Queries) GetRecipeByID(ctx context.Context, id pgtype.UUID) (Recipe, error) {
	row := q.db.QueryRow(ctx, getRecipeByID, id)
	return scanRecipeRow(row)
}

const listRecipes = `
SELECT id, name, blend_id, container_id, wick_cost_cents, wax_ratio, fragrance_load, target_price_cents, created_at, updated_at
FROM recipes
ORDER BY name
`

func (q *Queries) ListRecipes(ctx context.Context) ([]Recipe, error) {
	rows, err := q.db.Query(ctx, listRecipes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Recipe
	for rows.Next() {
		r, err := scanRecipeRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func scanRecipeRow(row rowScanner) (Recipe, error) {
	var r Recipe
	err := row.Scan(&r.ID, &r.Name, &r.BlendID, &r.ContainerID, &r.WickCostCents, &r.WaxRatio,
		&r.FragranceLoad, &r.TargetPriceCents, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
