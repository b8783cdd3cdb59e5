package catalog

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type stubQueries struct {
	products   []dbgen.ListProductsPublicRow
	product    dbgen.Product
	productErr error
	variants   []dbgen.ProductVariant

	listCalls  int
	countCalls int
}

func (s *stubQueries) ListProductsPublic(_ context.Context, _ dbgen.ListProductsPublicParams) ([]dbgen.ListProductsPublicRow, error) {
	s.listCalls++
	return s.products, nil
}

func (s *stubQueries) CountProductsPublic(_ context.Context, _ dbgen.CountProductsPublicParams) (int64, error) {
	s.countCalls++
	return int64(len(s.products)), nil
}

func (s *stubQueries) GetProductBySlug(_ context.Context, _ string) (dbgen.Product, error) {
	return s.product, s.productErr
}

func (s *stubQueries) ListVariantsByProduct(_ context.Context, _ pgtype.UUID) ([]dbgen.ProductVariant, error) {
	return s.variants, nil
}

func (s *stubQueries) ListRelatedProducts(_ context.Context, _ dbgen.ListRelatedProductsParams) ([]dbgen.ListProductsPublicRow, error) {
	return s.products, nil
}

func (s *stubQueries) CreateProduct(_ context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error) {
	return dbgen.Product{ID: newID(), Slug: arg.Slug, Name: arg.Name, Featured: arg.Featured, Active: arg.Active}, nil
}

func (s *stubQueries) UpdateProduct(_ context.Context, _ dbgen.UpdateProductParams) (dbgen.Product, error) {
	return s.product, s.productErr
}

func (s *stubQueries) GetProductByID(_ context.Context, _ pgtype.UUID) (dbgen.Product, error) {
	return s.product, s.productErr
}

func (s *stubQueries) CreateVariant(_ context.Context, arg dbgen.CreateVariantParams) (dbgen.ProductVariant, error) {
	return dbgen.ProductVariant{
		ID:         newID(),
		ProductID:  arg.ProductID,
		Sku:        arg.Sku,
		Scent:      arg.Scent,
		SizeOz:     arg.SizeOz,
		PriceCents: arg.PriceCents,
		Stock:      arg.Stock,
	}, nil
}

func (s *stubQueries) AdjustVariantStock(_ context.Context, _ dbgen.AdjustVariantStockParams) (int32, error) {
	if s.productErr != nil {
		return 0, s.productErr
	}
	return 5, nil
}

func newID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func newTestService(t *testing.T, q queryProvider, cache *Cache) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Queries: q, Cache: cache})
	require.NoError(t, err)
	return svc
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestParseListParams(t *testing.T) {
	svc := newTestService(t, &stubQueries{}, nil)
	params, err := svc.ParseListParams(url.Values{"q": {"lavender"}, "featured": {"true"}, "page": {"2"}, "limit": {"10"}})
	require.NoError(t, err)
	require.Equal(t, "lavender", params.Query)
	require.True(t, params.Featured)
	require.Equal(t, 2, params.Page)
	require.Equal(t, 10, params.Limit)

	_, err = svc.ParseListParams(url.Values{"page": {"0"}})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestListProductsCachesDefaultPage(t *testing.T) {
	q := &stubQueries{products: []dbgen.ListProductsPublicRow{
		{ID: newID(), Slug: "lavender-fields", Name: "Lavender Fields", PriceFrom: 1800, InStock: true},
	}}
	svc := newTestService(t, q, newTestCache(t))

	first, err := svc.ListProducts(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.Equal(t, 1, q.listCalls)

	second, err := svc.ListProducts(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Equal(t, first.Items, second.Items)
	require.Equal(t, 1, q.listCalls, "second read should come from cache")
}

func TestListProductsSkipsCacheForFilters(t *testing.T) {
	q := &stubQueries{}
	svc := newTestService(t, q, newTestCache(t))
	_, err := svc.ListProducts(context.Background(), ListParams{Query: "cedar", Page: 1, Limit: 20})
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background(), ListParams{Query: "cedar", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 2, q.listCalls)
}

func TestGetProductDetailNotFound(t *testing.T) {
	svc := newTestService(t, &stubQueries{productErr: pgx.ErrNoRows}, nil)
	_, err := svc.GetProductDetail(context.Background(), "gone")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetProductDetailIncludesVariants(t *testing.T) {
	id := newID()
	q := &stubQueries{
		product: dbgen.Product{ID: id, Slug: "lavender-fields", Name: "Lavender Fields", Active: true},
		variants: []dbgen.ProductVariant{
			{ID: newID(), ProductID: id, Sku: "CDL-8-LAVENDER-FIELDS", Scent: "Lavender Fields", SizeOz: 8, PriceCents: 1800, Stock: 12},
		},
	}
	svc := newTestService(t, q, nil)
	detail, err := svc.GetProductDetail(context.Background(), "lavender-fields")
	require.NoError(t, err)
	require.Len(t, detail.Variants, 1)
	require.Equal(t, "CDL-8-LAVENDER-FIELDS", detail.Variants[0].SKU)
	require.Equal(t, int32(8), detail.Variants[0].SizeOz)
}

func TestCreateVariantDerivesSKU(t *testing.T) {
	id := newID()
	q := &stubQueries{product: dbgen.Product{ID: id, Slug: "lavender-fields"}}
	svc := newTestService(t, q, nil)
	v, err := svc.CreateVariant(context.Background(), id, VariantInput{Scent: "Lavender Fields", SizeOz: 8, PriceCents: 1800, Stock: 10})
	require.NoError(t, err)
	require.Equal(t, "CDL-8-LAVENDER-FIELDS", v.SKU)
}

func TestAdjustStockRefusesNegative(t *testing.T) {
	svc := newTestService(t, &stubQueries{productErr: pgx.ErrNoRows}, nil)
	_, err := svc.AdjustStock(context.Background(), newID(), -100)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}
