package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type stubQuerier struct {
	pageViews  []dbgen.InsertPageViewParams
	salesCalls int
	topCalls   int
	viewCalls  int
}

func (s *stubQuerier) InsertPageView(_ context.Context, arg dbgen.InsertPageViewParams) error {
	s.pageViews = append(s.pageViews, arg)
	return nil
}

func (s *stubQuerier) DailyPageViews(context.Context, dbgen.DailyPageViewsParams) ([]dbgen.DailyPageViewsRow, error) {
	s.viewCalls++
	return []dbgen.DailyPageViewsRow{{Day: pgtype.Date{Time: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Valid: true}, Count: 42}}, nil
}

func (s *stubQuerier) DailySales(context.Context, dbgen.DailySalesParams) ([]dbgen.DailySalesRow, error) {
	s.salesCalls++
	return []dbgen.DailySalesRow{{
		Day:          pgtype.Date{Time: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Orders:       3,
		RevenueCents: 12000,
	}}, nil
}

func (s *stubQuerier) TopProducts(context.Context, dbgen.TopProductsParams) ([]dbgen.TopProductsRow, error) {
	s.topCalls++
	return []dbgen.TopProductsRow{{ProductSlug: "desert-dusk", Name: "Desert Dusk", Units: 9, RevenueCents: 16200}}, nil
}

func newTestService(t *testing.T, q Querier) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	return &Service{
		Q:   q,
		R:   redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		TTL: time.Minute,
	}
}

func TestRecordPageViewStoresOptionalFields(t *testing.T) {
	q := &stubQuerier{}
	svc := newTestService(t, q)

	require.NoError(t, svc.RecordPageView(context.Background(), "/products/desert-dusk", "v-1", ""))
	require.Len(t, q.pageViews, 1)
	require.Equal(t, "/products/desert-dusk", q.pageViews[0].Path)
	require.True(t, q.pageViews[0].VisitorID.Valid)
	require.False(t, q.pageViews[0].Referrer.Valid)
}

func TestSalesRangeCachesResult(t *testing.T) {
	q := &stubQuerier{}
	svc := newTestService(t, q)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := svc.SalesRange(context.Background(), from, to)
	require.NoError(t, err)
	second, err := svc.SalesRange(context.Background(), from, to)
	require.NoError(t, err)

	require.Equal(t, 1, q.salesCalls)
	require.Equal(t, first[0].RevenueCents, second[0].RevenueCents)
	require.Equal(t, int64(3), second[0].Orders)
}

func TestTopProductsCacheKeyedByLimit(t *testing.T) {
	q := &stubQuerier{}
	svc := newTestService(t, q)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	_, err := svc.TopProducts(context.Background(), from, to, 5)
	require.NoError(t, err)
	_, err = svc.TopProducts(context.Background(), from, to, 5)
	require.NoError(t, err)
	_, err = svc.TopProducts(context.Background(), from, to, 10)
	require.NoError(t, err)

	require.Equal(t, 2, q.topCalls)
}

func TestPageViewsRangeUsesCache(t *testing.T) {
	q := &stubQuerier{}
	svc := newTestService(t, q)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows, err := svc.PageViewsRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, int64(42), rows[0].Count)
	_, err = svc.PageViewsRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, q.viewCalls)
}
