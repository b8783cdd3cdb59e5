package promo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// AdminQuerier captures the database methods the admin endpoints need.
type AdminQuerier interface {
	InsertPromotion(ctx context.Context, arg dbgen.InsertPromotionParams) (dbgen.Promotion, error)
	UpdatePromotion(ctx context.Context, arg dbgen.UpdatePromotionParams) (dbgen.Promotion, error)
	DeletePromotion(ctx context.Context, id pgtype.UUID) error
	GetPromotionByID(ctx context.Context, id pgtype.UUID) (dbgen.Promotion, error)
	ListPromotions(ctx context.Context, arg dbgen.ListPromotionsParams) ([]dbgen.Promotion, error)
	CountPromotions(ctx context.Context) (int64, error)
}

// Handler exposes administrative promotion management plus preview.
type Handler struct {
	Q        AdminQuerier
	Svc      *Service
	Validate *validator.Validate
}

type payload struct {
	Code                  string     `json:"code" validate:"required,min=2,max=32"`
	Name                  string     `json:"name" validate:"required,max=120"`
	Kind                  string     `json:"kind" validate:"required,oneof=percentage fixed_amount quantity_discount bogo"`
	Trigger               string     `json:"trigger" validate:"omitempty,oneof=code_required automatic"`
	DiscountPercent       int32      `json:"discountPercent" validate:"min=0,max=100"`
	DiscountAmountCents   int64      `json:"discountAmountCents" validate:"min=0"`
	MinQuantity           int32      `json:"minQuantity" validate:"min=0"`
	ApplyToQuantity       int32      `json:"applyToQuantity" validate:"min=0"`
	MinOrderCents         int64      `json:"minOrderAmountCents" validate:"min=0"`
	MaxRedemptions        *int32     `json:"maxRedemptions" validate:"omitempty,min=1"`
	MaxPerCustomer        *int32     `json:"maxPerCustomer" validate:"omitempty,min=1"`
	Targeting             string     `json:"userTargeting" validate:"omitempty,oneof=all first_time returning specific_users order_count lifetime_spend"`
	TargetUserIDs         []string   `json:"targetUserIds" validate:"omitempty,dive,uuid4"`
	MinOrderCount         int32      `json:"minOrderCount" validate:"min=0"`
	MinLifetimeSpendCents int64      `json:"minLifetimeSpendCents" validate:"min=0"`
	ProductSlugs          []string   `json:"applicableProductSlugs"`
	StartsAt              *time.Time `json:"startsAt"`
	ExpiresAt             *time.Time `json:"expiresAt"`
	Active                bool       `json:"active"`
}

type previewRequest struct {
	Code   string        `json:"code" validate:"required"`
	UserID *string       `json:"userId"`
	Items  []previewItem `json:"items" validate:"required,min=1,dive"`
}

type previewItem struct {
	ProductSlug    string `json:"productSlug" validate:"required"`
	Qty            int32  `json:"qty" validate:"min=1"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"min=0"`
}

// Create inserts a new promotion.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p payload
	params, ok := h.decode(w, r, &p)
	if !ok {
		return
	}
	promo, err := h.Q.InsertPromotion(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promotion code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create promotion", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toDTO(promo)})
}

// Update replaces an existing promotion's rule fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid promotion id", nil)
		return
	}
	var p payload
	params, ok := h.decode(w, r, &p)
	if !ok {
		return
	}
	promo, err := h.Q.UpdatePromotion(r.Context(), dbgen.UpdatePromotionParams{
		ID:                    id,
		Name:                  params.Name,
		Kind:                  params.Kind,
		TriggerType:           params.TriggerType,
		DiscountPercent:       params.DiscountPercent,
		DiscountAmountCents:   params.DiscountAmountCents,
		MinQuantity:           params.MinQuantity,
		ApplyToQuantity:       params.ApplyToQuantity,
		MinOrderCents:         params.MinOrderCents,
		MaxRedemptions:        params.MaxRedemptions,
		MaxPerCustomer:        params.MaxPerCustomer,
		Targeting:             params.Targeting,
		TargetUserIds:         params.TargetUserIds,
		MinOrderCount:         params.MinOrderCount,
		MinLifetimeSpendCents: params.MinLifetimeSpendCents,
		ProductSlugs:          params.ProductSlugs,
		StartsAt:              params.StartsAt,
		ExpiresAt:             params.ExpiresAt,
		Active:                params.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promotion not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update promotion", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(promo)})
}

// Get returns one promotion by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid promotion id", nil)
		return
	}
	promo, err := h.Q.GetPromotionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promotion not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load promotion", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(promo)})
}

// List returns promotions newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	promos, err := h.Q.ListPromotions(r.Context(), dbgen.ListPromotionsParams{
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list promotions", nil)
		return
	}
	total, err := h.Q.CountPromotions(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list promotions", nil)
		return
	}
	out := make([]map[string]any, 0, len(promos))
	for _, p := range promos {
		out = append(out, toDTO(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Delete removes a promotion. Redemption history rows remain.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid promotion id", nil)
		return
	}
	if err := h.Q.DeletePromotion(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete promotion", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview evaluates a code against the supplied cart without mutating state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{ProductSlug: it.ProductSlug, Qty: it.Qty, UnitPriceCents: it.UnitPriceCents})
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, req.UserID, items)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promotion not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate promotion", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, p *payload) (dbgen.InsertPromotionParams, bool) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo queries not configured", nil)
		return dbgen.InsertPromotionParams{}, false
	}
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return dbgen.InsertPromotionParams{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(p); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return dbgen.InsertPromotionParams{}, false
		}
	}
	params, err := buildParams(*p)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return dbgen.InsertPromotionParams{}, false
	}
	return params, true
}

// buildParams assembles the evaluator rule from the payload so its
// conditional-field validation runs before anything is persisted.
func buildParams(p payload) (dbgen.InsertPromotionParams, error) {
	trigger := strings.TrimSpace(p.Trigger)
	if trigger == "" {
		trigger = string(TriggerCode)
	}
	targeting := strings.TrimSpace(p.Targeting)
	if targeting == "" {
		targeting = string(TargetAll)
	}
	targetIDs := make([]uuid.UUID, 0, len(p.TargetUserIDs))
	pgIDs := make([]pgtype.UUID, 0, len(p.TargetUserIDs))
	for _, raw := range p.TargetUserIDs {
		parsed, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return dbgen.InsertPromotionParams{}, errors.New("invalid target user id")
		}
		targetIDs = append(targetIDs, parsed)
		pgIDs = append(pgIDs, pgtype.UUID{Bytes: parsed, Valid: true})
	}
	rule := Rule{
		Code:                  strings.ToUpper(strings.TrimSpace(p.Code)),
		Name:                  strings.TrimSpace(p.Name),
		Kind:                  Kind(p.Kind),
		Trigger:               Trigger(trigger),
		DiscountPercent:       p.DiscountPercent,
		DiscountAmountCents:   p.DiscountAmountCents,
		MinQuantity:           p.MinQuantity,
		ApplyToQuantity:       p.ApplyToQuantity,
		MinOrderCents:         p.MinOrderCents,
		MaxRedemptions:        p.MaxRedemptions,
		MaxPerCustomer:        p.MaxPerCustomer,
		Targeting:             Targeting(targeting),
		TargetUserIDs:         targetIDs,
		MinOrderCount:         p.MinOrderCount,
		MinLifetimeSpendCents: p.MinLifetimeSpendCents,
		ProductSlugs:          p.ProductSlugs,
		StartsAt:              p.StartsAt,
		ExpiresAt:             p.ExpiresAt,
		Active:                p.Active,
	}
	if err := rule.Validate(); err != nil {
		return dbgen.InsertPromotionParams{}, err
	}
	if rule.StartsAt != nil && rule.ExpiresAt != nil && rule.ExpiresAt.Before(*rule.StartsAt) {
		return dbgen.InsertPromotionParams{}, errors.New("expiresAt must be after startsAt")
	}
	params := dbgen.InsertPromotionParams{
		Code:                  rule.Code,
		Name:                  rule.Name,
		Kind:                  string(rule.Kind),
		TriggerType:           string(rule.Trigger),
		DiscountPercent:       rule.DiscountPercent,
		DiscountAmountCents:   rule.DiscountAmountCents,
		MinQuantity:           rule.MinQuantity,
		ApplyToQuantity:       rule.ApplyToQuantity,
		MinOrderCents:         rule.MinOrderCents,
		Targeting:             string(rule.Targeting),
		TargetUserIds:         pgIDs,
		MinOrderCount:         rule.MinOrderCount,
		MinLifetimeSpendCents: rule.MinLifetimeSpendCents,
		ProductSlugs:          rule.ProductSlugs,
		Active:                rule.Active,
	}
	if p.MaxRedemptions != nil {
		params.MaxRedemptions = pgtype.Int4{Int32: *p.MaxRedemptions, Valid: true}
	}
	if p.MaxPerCustomer != nil {
		params.MaxPerCustomer = pgtype.Int4{Int32: *p.MaxPerCustomer, Valid: true}
	}
	if p.StartsAt != nil {
		params.StartsAt = pgtype.Timestamptz{Time: *p.StartsAt, Valid: true}
	}
	if p.ExpiresAt != nil {
		params.ExpiresAt = pgtype.Timestamptz{Time: *p.ExpiresAt, Valid: true}
	}
	return params, nil
}

func toDTO(p dbgen.Promotion) map[string]any {
	dto := map[string]any{
		"id":                  uuidString(p.ID),
		"code":                p.Code,
		"name":                p.Name,
		"kind":                p.Kind,
		"trigger":             p.TriggerType,
		"userTargeting":       p.Targeting,
		"active":              p.Active,
		"currentRedemptions":  p.CurrentRedemptions,
		"minOrderAmountCents": p.MinOrderCents,
	}
	switch Kind(p.Kind) {
	case KindPercentage, KindQuantity:
		dto["discountPercent"] = p.DiscountPercent
	case KindFixed:
		dto["discountAmountCents"] = p.DiscountAmountCents
	}
	if p.MinQuantity > 0 {
		dto["minQuantity"] = p.MinQuantity
	}
	if p.ApplyToQuantity > 0 {
		dto["applyToQuantity"] = p.ApplyToQuantity
	}
	if p.MaxRedemptions.Valid {
		dto["maxRedemptions"] = p.MaxRedemptions.Int32
	}
	if p.MaxPerCustomer.Valid {
		dto["maxPerCustomer"] = p.MaxPerCustomer.Int32
	}
	if len(p.ProductSlugs) > 0 {
		dto["applicableProductSlugs"] = p.ProductSlugs
	}
	if p.StartsAt.Valid {
		dto["startsAt"] = p.StartsAt.Time
	}
	if p.ExpiresAt.Valid {
		dto["expiresAt"] = p.ExpiresAt.Time
	}
	return dto
}

func parseIDParam(r *http.Request) (pgtype.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
