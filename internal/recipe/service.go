package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Reader captures the read-side database methods used by the service.
type Reader interface {
	GetRecipeByID(ctx context.Context, id pgtype.UUID) (dbgen.Recipe, error)
	GetBlendByID(ctx context.Context, id pgtype.UUID) (dbgen.Blend, error)
	GetContainerByID(ctx context.Context, id pgtype.UUID) (dbgen.Container, error)
	ListBlendComponents(ctx context.Context, blendID pgtype.UUID) ([]dbgen.ListBlendComponentsRow, error)
}

// Service computes candle material costs from persisted recipes.
type Service struct {
	Q    Reader
	Pool *pgxpool.Pool
	Tx   *dbgen.Queries
}

// BlendInput is the create payload for a weighted scent blend.
type BlendInput struct {
	Name       string                `json:"name" validate:"required,max=100"`
	Components []BlendComponentInput `json:"components" validate:"required,min=1,dive"`
}

// BlendComponentInput is one scent share in whole percent.
type BlendComponentInput struct {
	ScentID string `json:"scentId" validate:"required,uuid4"`
	Percent int32  `json:"percent" validate:"min=1,max=100"`
}

// CreateBlend inserts the blend and its components atomically after
// checking the percents total 100.
func (s *Service) CreateBlend(ctx context.Context, in BlendInput) (dbgen.Blend, error) {
	if s == nil || s.Pool == nil || s.Tx == nil {
		return dbgen.Blend{}, errors.New("recipe service not configured")
	}
	var total int32
	for _, c := range in.Components {
		total += c.Percent
	}
	if total != 100 {
		return dbgen.Blend{}, fmt.Errorf("%w: got %d", ErrBlendPercents, total)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return dbgen.Blend{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Tx.WithTx(tx)
	blend, err := qtx.InsertBlend(ctx, in.Name)
	if err != nil {
		return dbgen.Blend{}, fmt.Errorf("insert blend: %w", err)
	}
	for _, c := range in.Components {
		scentID, err := parseUUID(c.ScentID)
		if err != nil {
			return dbgen.Blend{}, fmt.Errorf("invalid scent id %q", c.ScentID)
		}
		if err := qtx.InsertBlendComponent(ctx, dbgen.InsertBlendComponentParams{
			BlendID: blend.ID,
			ScentID: scentID,
			Percent: c.Percent,
		}); err != nil {
			return dbgen.Blend{}, fmt.Errorf("insert blend component: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return dbgen.Blend{}, err
	}
	return blend, nil
}

// CostForRecipe loads the recipe's blend and container and derives the
// per-candle cost breakdown.
func (s *Service) CostForRecipe(ctx context.Context, recipeID pgtype.UUID) (CostBreakdown, error) {
	if s == nil || s.Q == nil {
		return CostBreakdown{}, errors.New("recipe service not configured")
	}
	r, err := s.Q.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CostBreakdown{}, ErrNotFound
		}
		return CostBreakdown{}, err
	}
	container, err := s.Q.GetContainerByID(ctx, r.ContainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CostBreakdown{}, ErrNotFound
		}
		return CostBreakdown{}, err
	}
	rows, err := s.Q.ListBlendComponents(ctx, r.BlendID)
	if err != nil {
		return CostBreakdown{}, err
	}
	components := make([]Component, 0, len(rows))
	for _, row := range rows {
		components = append(components, Component{
			ScentName:      row.ScentName,
			Percent:        row.Percent,
			CostPerOzCents: row.CostPerOzCents,
		})
	}
	fragranceCost, err := BlendCostPerOz(components)
	if err != nil {
		return CostBreakdown{}, err
	}
	return Cost(CostInput{
		WaterOz:                 container.WaterOz,
		WaxRatio:                r.WaxRatio,
		FragranceLoad:           r.FragranceLoad,
		FragranceCostPerOzCents: fragranceCost,
		WickCostCents:           r.WickCostCents,
		ContainerCostCents:      container.CostCents,
		TargetPriceCents:        r.TargetPriceCents,
	}), nil
}

func parseUUID(raw string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(raw); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}
