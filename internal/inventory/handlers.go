package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// Querier captures the database methods used by the handlers.
type Querier interface {
	InsertInventoryItem(ctx context.Context, arg dbgen.InsertInventoryItemParams) (dbgen.InventoryItem, error)
	ListInventoryItems(ctx context.Context, arg dbgen.ListInventoryItemsParams) ([]dbgen.InventoryItem, error)
	GetInventoryItemByID(ctx context.Context, id pgtype.UUID) (dbgen.InventoryItem, error)
	AdjustInventoryQuantity(ctx context.Context, arg dbgen.AdjustInventoryQuantityParams) (dbgen.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id pgtype.UUID) error
	InventoryValuation(ctx context.Context) (dbgen.InventoryValuationRow, error)
}

// Handler exposes the admin finished-goods inventory endpoints.
type Handler struct {
	Q        Querier
	Validate *validator.Validate
}

type itemPayload struct {
	SKU                string `json:"sku" validate:"required,max=50"`
	Batch              string `json:"batch" validate:"required,max=50"`
	ProductionDate     string `json:"productionDate" validate:"required,datetime=2006-01-02"`
	Quantity           int32  `json:"quantity" validate:"min=0"`
	MaterialCostCents  int64  `json:"materialCostCents" validate:"min=0"`
	ContainerCostCents int64  `json:"containerCostCents" validate:"min=0"`
	TargetPriceCents   int64  `json:"targetPriceCents" validate:"min=0"`
}

// Item is the API form of an inventory batch.
type Item struct {
	ID                 string `json:"id"`
	SKU                string `json:"sku"`
	Batch              string `json:"batch"`
	ProductionDate     string `json:"productionDate"`
	Quantity           int32  `json:"quantity"`
	MaterialCostCents  int64  `json:"materialCostCents"`
	ContainerCostCents int64  `json:"containerCostCents"`
	TargetPriceCents   int64  `json:"targetPriceCents"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in itemPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	date, err := time.Parse("2006-01-02", in.ProductionDate)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid productionDate", nil)
		return
	}
	item, err := h.Q.InsertInventoryItem(r.Context(), dbgen.InsertInventoryItemParams{
		Sku:                in.SKU,
		Batch:              in.Batch,
		ProductionDate:     pgtype.Date{Time: date, Valid: true},
		Quantity:           in.Quantity,
		MaterialCostCents:  in.MaterialCostCents,
		ContainerCostCents: in.ContainerCostCents,
		TargetPriceCents:   in.TargetPriceCents,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to record inventory batch", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toAPI(item)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	items, err := h.Q.ListInventoryItems(r.Context(), dbgen.ListInventoryItemsParams{
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list inventory", nil)
		return
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, toAPI(it))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	item, err := h.Q.GetInventoryItemByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "inventory batch not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load inventory batch", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toAPI(item)})
}

type adjustPayload struct {
	Delta int32 `json:"delta" validate:"required"`
}

// Adjust moves stock up or down. The row update refuses to take quantity
// below zero, which surfaces here as a conflict.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var in adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Delta == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "delta must be a non-zero integer", nil)
		return
	}
	item, err := h.Q.AdjustInventoryQuantity(r.Context(), dbgen.AdjustInventoryQuantityParams{ID: id, Delta: in.Delta})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "adjustment would take quantity below zero", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to adjust inventory", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toAPI(item)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Q.DeleteInventoryItem(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete inventory batch", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Valuation summarizes the whole inventory at cost and at retail.
func (h *Handler) Valuation(w http.ResponseWriter, r *http.Request) {
	v, err := h.Q.InventoryValuation(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute valuation", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"batches":              v.Batches,
		"units":                v.Units,
		"costCents":            v.CostCents,
		"retailCents":          v.RetailCents,
		"potentialProfitCents": v.RetailCents - v.CostCents,
	}})
}

func toAPI(it dbgen.InventoryItem) Item {
	date := ""
	if it.ProductionDate.Valid {
		date = it.ProductionDate.Time.Format("2006-01-02")
	}
	return Item{
		ID:                 uuidString(it.ID),
		SKU:                it.Sku,
		Batch:              it.Batch,
		ProductionDate:     date,
		Quantity:           it.Quantity,
		MaterialCostCents:  it.MaterialCostCents,
		ContainerCostCents: it.ContainerCostCents,
		TargetPriceCents:   it.TargetPriceCents,
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid inventory id", nil)
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, true
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", id.Bytes[0:4], id.Bytes[4:6], id.Bytes[6:8], id.Bytes[8:10], id.Bytes[10:16])
}
