package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type queryProvider interface {
	ListProductsPublic(ctx context.Context, arg dbgen.ListProductsPublicParams) ([]dbgen.ListProductsPublicRow, error)
	CountProductsPublic(ctx context.Context, arg dbgen.CountProductsPublicParams) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (dbgen.Product, error)
	ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]dbgen.ProductVariant, error)
	ListRelatedProducts(ctx context.Context, arg dbgen.ListRelatedProductsParams) ([]dbgen.ListProductsPublicRow, error)
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error)
	UpdateProduct(ctx context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.Product, error)
	CreateVariant(ctx context.Context, arg dbgen.CreateVariantParams) (dbgen.ProductVariant, error)
	AdjustVariantStock(ctx context.Context, arg dbgen.AdjustVariantStockParams) (int32, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Featured bool
	Page     int
	Limit    int
}

// ProductListItem represents an entry in list/related responses.
type ProductListItem struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Featured    bool   `json:"featured"`
	PriceFrom   int64  `json:"priceFromCents"`
	InStock     bool   `json:"inStock"`
}

// VariantView is a sellable variant in the detail payload.
type VariantView struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Scent      string `json:"scent"`
	SizeOz     int32  `json:"sizeOz"`
	PriceCents int64  `json:"priceCents"`
	Stock      int32  `json:"stock"`
}

// ProductDetail aggregates the full detail payload.
type ProductDetail struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Story       string        `json:"story,omitempty"`
	Featured    bool          `json:"featured"`
	Variants    []VariantView `json:"variants"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Query = strings.TrimSpace(values.Get("q"))
	if v := strings.TrimSpace(values.Get("featured")); v != "" {
		params.Featured = v == "true" || v == "1"
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		if limit > s.maxLimit {
			limit = s.maxLimit
		}
		params.Limit = limit
	}
	return params, nil
}

// ListProducts returns the filtered product list with pagination metadata.
// The unfiltered first page is served from cache.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	key, cacheable := s.listCacheKey(params)
	if cacheable {
		var cached cachedList
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return ProductListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}
	total, err := s.queries.CountProductsPublic(ctx, dbgen.CountProductsPublicParams{
		Query:        params.Query,
		FeaturedOnly: params.Featured,
	})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProductsPublic(ctx, dbgen.ListProductsPublicParams{
		Query:        params.Query,
		FeaturedOnly: params.Featured,
		Limit:        int32(params.Limit),
		Offset:       int32((params.Page - 1) * params.Limit),
	})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, listItem(row))
	}
	if cacheable {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProductDetail returns the product with its sellable variants.
func (s *Service) GetProductDetail(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, badRequest("slug", "slug is required", nil)
	}
	cacheKey := detailCacheKey(slug)
	var cached ProductDetail
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	product, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, notFound("product not found", err)
		}
		return ProductDetail{}, fmt.Errorf("get product by slug: %w", err)
	}
	variants, err := s.queries.ListVariantsByProduct(ctx, product.ID)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("list variants: %w", err)
	}
	detail := ProductDetail{
		ID:          uuidString(product.ID),
		Slug:        product.Slug,
		Name:        product.Name,
		Description: product.Description.String,
		Story:       product.Story.String,
		Featured:    product.Featured,
		Variants:    make([]VariantView, 0, len(variants)),
	}
	for _, v := range variants {
		detail.Variants = append(detail.Variants, variantView(v))
	}
	_ = s.cache.SetJSON(ctx, cacheKey, detail)
	return detail, nil
}

// ListRelated fetches other products for the detail page rail.
func (s *Service) ListRelated(ctx context.Context, slug string) ([]ProductListItem, error) {
	product, err := s.queries.GetProductBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product not found", err)
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	rows, err := s.queries.ListRelatedProducts(ctx, dbgen.ListRelatedProductsParams{ExcludeID: product.ID, Limit: 4})
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	items := make([]ProductListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, listItem(row))
	}
	return items, nil
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Slug        string `json:"slug" validate:"required,max=120"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Story       string `json:"story" validate:"max=5000"`
	Featured    bool   `json:"featured"`
	Active      bool   `json:"active"`
}

// CreateProduct inserts a product and invalidates the list cache.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (ProductDetail, error) {
	product, err := s.queries.CreateProduct(ctx, dbgen.CreateProductParams{
		Slug:        in.Slug,
		Name:        in.Name,
		Description: optText(in.Description),
		Story:       optText(in.Story),
		Featured:    in.Featured,
		Active:      in.Active,
	})
	if err != nil {
		return ProductDetail{}, err
	}
	s.cache.Invalidate(ctx, listCachePopularKey)
	return ProductDetail{
		ID:          uuidString(product.ID),
		Slug:        product.Slug,
		Name:        product.Name,
		Description: product.Description.String,
		Story:       product.Story.String,
		Featured:    product.Featured,
		Variants:    []VariantView{},
	}, nil
}

// UpdateProduct rewrites the mutable product fields and drops stale cache.
func (s *Service) UpdateProduct(ctx context.Context, id pgtype.UUID, in ProductInput) (ProductDetail, error) {
	product, err := s.queries.UpdateProduct(ctx, dbgen.UpdateProductParams{
		ID:          id,
		Name:        in.Name,
		Description: optText(in.Description),
		Story:       optText(in.Story),
		Featured:    in.Featured,
		Active:      in.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, notFound("product not found", err)
		}
		return ProductDetail{}, err
	}
	s.cache.Invalidate(ctx, listCachePopularKey, detailCacheKey(product.Slug))
	return s.GetProductDetail(ctx, product.Slug)
}

// VariantInput is the admin payload for adding a sellable variant. The SKU
// is derived from size and scent, never supplied by the client.
type VariantInput struct {
	Scent      string `json:"scent" validate:"required,max=100"`
	SizeOz     int32  `json:"sizeOz" validate:"min=1,max=64"`
	PriceCents int64  `json:"priceCents" validate:"min=1"`
	Stock      int32  `json:"stock" validate:"min=0"`
}

// CreateVariant derives the SKU and attaches the variant to the product.
func (s *Service) CreateVariant(ctx context.Context, productID pgtype.UUID, in VariantInput) (VariantView, error) {
	if _, err := s.queries.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VariantView{}, notFound("product not found", err)
		}
		return VariantView{}, err
	}
	sku, err := MakeSKU(in.SizeOz, in.Scent)
	if err != nil {
		return VariantView{}, badRequest("scent", err.Error(), err)
	}
	variant, err := s.queries.CreateVariant(ctx, dbgen.CreateVariantParams{
		ProductID:  productID,
		Sku:        sku,
		Scent:      in.Scent,
		SizeOz:     in.SizeOz,
		PriceCents: in.PriceCents,
		Stock:      in.Stock,
		Active:     true,
	})
	if err != nil {
		return VariantView{}, err
	}
	s.invalidateProductCaches(ctx, productID)
	return variantView(variant), nil
}

// AdjustStock moves variant stock by delta, refusing to go negative.
func (s *Service) AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error) {
	stock, err := s.queries.AdjustVariantStock(ctx, dbgen.AdjustVariantStockParams{ID: variantID, Delta: delta})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &common.AppError{Code: "INSUFFICIENT_STOCK", Message: "adjustment would take stock below zero", HTTPStatus: http.StatusConflict, Err: err}
		}
		return 0, err
	}
	s.cache.Invalidate(ctx, listCachePopularKey)
	return stock, nil
}

func (s *Service) invalidateProductCaches(ctx context.Context, productID pgtype.UUID) {
	keys := []string{listCachePopularKey}
	if product, err := s.queries.GetProductByID(ctx, productID); err == nil {
		keys = append(keys, detailCacheKey(product.Slug))
	}
	s.cache.Invalidate(ctx, keys...)
}

type cachedList struct {
	Items []ProductListItem `json:"items"`
	Total int64             `json:"total"`
}

const listCachePopularKey = "catalog:products:list:popular"

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	if params.Page != 1 || params.Limit != s.defaultLimit || params.Query != "" || params.Featured {
		return "", false
	}
	return listCachePopularKey, true
}

func detailCacheKey(slug string) string {
	return "catalog:products:detail:" + slug
}

func listItem(row dbgen.ListProductsPublicRow) ProductListItem {
	return ProductListItem{
		ID:          uuidString(row.ID),
		Slug:        row.Slug,
		Name:        row.Name,
		Description: row.Description.String,
		Featured:    row.Featured,
		PriceFrom:   row.PriceFrom,
		InStock:     row.InStock,
	}
}

func variantView(v dbgen.ProductVariant) VariantView {
	return VariantView{
		ID:         uuidString(v.ID),
		SKU:        v.Sku,
		Scent:      v.Scent,
		SizeOz:     v.SizeOz,
		PriceCents: v.PriceCents,
		Stock:      v.Stock,
	}
}

func optText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

func notFound(message string, err error) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound, Err: err}
}
