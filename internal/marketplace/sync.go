package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/cart"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
	"github.com/desertcandleworks/backend-store/internal/obs"
)

// MarketplaceTikTok is the listing row marketplace discriminator.
const MarketplaceTikTok = "tiktok"

// Querier captures the database methods the syncer needs.
type Querier interface {
	ListActiveVariants(ctx context.Context) ([]dbgen.ProductVariant, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.Product, error)
	UpsertMarketplaceListing(ctx context.Context, arg dbgen.UpsertMarketplaceListingParams) error
	MarkListingSynced(ctx context.Context, arg dbgen.MarkListingSyncedParams) error
	MarkListingFailed(ctx context.Context, arg dbgen.MarkListingFailedParams) error
	ListMarketplaceListings(ctx context.Context, marketplace string) ([]dbgen.MarketplaceListing, error)
}

// Syncer pushes every active variant to a marketplace and records per-variant
// sync state. One variant failing does not stop the run.
type Syncer struct {
	Q           Querier
	Shop        Shop
	Marketplace string
	Bus         *events.Bus
	Log         zerolog.Logger
	Now         func() time.Time
}

// Report summarises a sync run.
type Report struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

func (s *Syncer) marketplace() string {
	if s.Marketplace != "" {
		return s.Marketplace
	}
	return MarketplaceTikTok
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SyncAll pushes all active variants. The returned error is nil as long as
// the variant list itself could be loaded; per-variant outcomes live in the
// report and the listing rows.
func (s *Syncer) SyncAll(ctx context.Context) (Report, error) {
	var report Report
	if s == nil || s.Q == nil || s.Shop == nil {
		return report, errors.New("marketplace syncer not configured")
	}
	start := s.now()
	defer func() {
		if obs.MarketplaceSyncDuration != nil {
			obs.MarketplaceSyncDuration.WithLabelValues(s.marketplace()).Observe(obs.DurationMillis(s.now().Sub(start)))
		}
	}()

	variants, err := s.Q.ListActiveVariants(ctx)
	if err != nil {
		return report, err
	}
	products := make(map[pgtype.UUID]dbgen.Product, len(variants))
	for _, variant := range variants {
		if err := s.syncVariant(ctx, variant, products); err != nil {
			report.Failed++
			continue
		}
		report.Synced++
	}
	s.Log.Info().
		Str("marketplace", s.marketplace()).
		Int("synced", report.Synced).
		Int("failed", report.Failed).
		Msg("marketplace sync finished")
	return report, nil
}

func (s *Syncer) syncVariant(ctx context.Context, variant dbgen.ProductVariant, products map[pgtype.UUID]dbgen.Product) error {
	if err := s.Q.UpsertMarketplaceListing(ctx, dbgen.UpsertMarketplaceListingParams{
		VariantID:   variant.ID,
		Marketplace: s.marketplace(),
	}); err != nil {
		return s.fail(ctx, variant.ID, err)
	}
	product, ok := products[variant.ProductID]
	if !ok {
		loaded, err := s.Q.GetProductByID(ctx, variant.ProductID)
		if err != nil {
			return s.fail(ctx, variant.ID, err)
		}
		products[variant.ProductID] = loaded
		product = loaded
	}
	externalID, err := s.Shop.PushProduct(ctx, Listing{
		SKU:         variant.Sku,
		ProductName: product.Name,
		Scent:       variant.Scent,
		SizeOz:      variant.SizeOz,
		PriceCents:  variant.PriceCents,
		Stock:       variant.Stock,
	})
	if err != nil {
		return s.fail(ctx, variant.ID, err)
	}
	if err := s.Q.MarkListingSynced(ctx, dbgen.MarkListingSyncedParams{
		VariantID:   variant.ID,
		Marketplace: s.marketplace(),
		ExternalID:  pgtype.Text{String: externalID, Valid: true},
	}); err != nil {
		return s.fail(ctx, variant.ID, err)
	}
	s.record("ok")
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicProductSynced, variant.ID, map[string]any{
			"variantId":   cart.UUIDString(variant.ID),
			"sku":         variant.Sku,
			"marketplace": s.marketplace(),
			"externalId":  externalID,
		}); err != nil {
			s.Log.Warn().Err(err).Str("sku", variant.Sku).Msg("sync event emit failed")
		}
	}
	return nil
}

func (s *Syncer) fail(ctx context.Context, variantID pgtype.UUID, cause error) error {
	s.record("error")
	s.Log.Error().Err(cause).Str("variantId", cart.UUIDString(variantID)).Msg("variant sync failed")
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	if err := s.Q.MarkListingFailed(ctx, dbgen.MarkListingFailedParams{
		VariantID:   variantID,
		Marketplace: s.marketplace(),
		LastError:   pgtype.Text{String: msg, Valid: true},
	}); err != nil {
		s.Log.Error().Err(err).Msg("failed to record listing error")
	}
	return cause
}

func (s *Syncer) record(result string) {
	if obs.MarketplaceSyncTotal == nil {
		return
	}
	obs.MarketplaceSyncTotal.WithLabelValues(s.marketplace(), result).Inc()
}
