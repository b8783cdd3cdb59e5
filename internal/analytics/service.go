package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/obs"
)

// Querier defines the database access required for analytics operations.
type Querier interface {
	InsertPageView(ctx context.Context, arg dbgen.InsertPageViewParams) error
	DailyPageViews(ctx context.Context, arg dbgen.DailyPageViewsParams) ([]dbgen.DailyPageViewsRow, error)
	DailySales(ctx context.Context, arg dbgen.DailySalesParams) ([]dbgen.DailySalesRow, error)
	TopProducts(ctx context.Context, arg dbgen.TopProductsParams) ([]dbgen.TopProductsRow, error)
}

// Service ingests page views and serves cached dashboard aggregates.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// RecordPageView stores one storefront page view. Ingest is best-effort
// fire-and-forget from the client's perspective.
func (s *Service) RecordPageView(ctx context.Context, path, visitorID, referrer string) error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("analytics service not configured")
	}
	err := s.Q.InsertPageView(ctx, dbgen.InsertPageViewParams{
		Path:      path,
		VisitorID: optText(visitorID),
		Referrer:  optText(referrer),
	})
	if err != nil {
		return err
	}
	if obs.PageViewsIngested != nil {
		obs.PageViewsIngested.Inc()
	}
	return nil
}

// SalesRange returns per-day sales between from (inclusive) and to (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]dbgen.DailySalesRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if rows, ok := fromCache[[]dbgen.DailySalesRow](s, ctx, key); ok {
		return rows, nil
	}
	rows, err := s.Q.DailySales(ctx, dbgen.DailySalesParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best-selling products by revenue over the range.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]dbgen.TopProductsRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("an", "top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	if rows, ok := fromCache[[]dbgen.TopProductsRow](s, ctx, key); ok {
		return rows, nil
	}
	rows, err := s.Q.TopProducts(ctx, dbgen.TopProductsParams{
		From:  pgtype.Timestamptz{Time: from, Valid: true},
		To:    pgtype.Timestamptz{Time: to, Valid: true},
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// PageViewsRange returns per-day page view counts over the range.
func (s *Service) PageViewsRange(ctx context.Context, from, to time.Time) ([]dbgen.DailyPageViewsRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "views", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if rows, ok := fromCache[[]dbgen.DailyPageViewsRow](s, ctx, key); ok {
		return rows, nil
	}
	rows, err := s.Q.DailyPageViews(ctx, dbgen.DailyPageViewsParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func fromCache[T any](s *Service, ctx context.Context, key string) (T, bool) {
	var zero T
	if s.R == nil || s.TTL <= 0 {
		return zero, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return zero, false
	}
	var rows T
	if err := json.Unmarshal(data, &rows); err != nil {
		return zero, false
	}
	return rows, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func optText(value string) pgtype.Text {
	value = strings.TrimSpace(value)
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
