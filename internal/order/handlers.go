package order

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// Querier captures the database methods used by the order handlers.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error)
	ListOrdersByUser(ctx context.Context, arg dbgen.ListOrdersByUserParams) ([]dbgen.Order, error)
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	UpdateOrderStatus(ctx context.Context, arg dbgen.UpdateOrderStatusParams) error
}

// Handler provides the customer's own order history.
type Handler struct {
	Q Querier
}

// List handles GET /api/v1/orders for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Q.CountOrdersByUser(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersByUser(r.Context(), dbgen.ListOrdersByUserParams{
		UserID: uID,
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, ord := range orders {
		response = append(response, summaryDTO(ord))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get handles GET /api/v1/orders/{orderId}. Users only see their own orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	oID, err := cart.ToUUID(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if !cart.UUIDEqual(ord.UserID, uID) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), ord.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	dto := summaryDTO(ord)
	lines := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]any{
			"variantId":      cart.UUIDString(it.VariantID),
			"productSlug":    it.ProductSlug,
			"name":           it.Name,
			"sku":            it.Sku,
			"qty":            it.Qty,
			"unitPriceCents": it.UnitPriceCents,
		})
	}
	dto["items"] = lines
	common.JSON(w, http.StatusOK, map[string]any{"data": dto})
}

// Cancel handles POST /api/v1/orders/{orderId}/cancel. Only orders still
// awaiting payment can be cancelled by the customer.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	oID, err := cart.ToUUID(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order lookup failed", nil)
		return
	}
	if !cart.UUIDEqual(ord.UserID, uID) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	if ord.Status != dbgen.OrderStatusPendingPayment {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "only pending orders can be cancelled", nil)
		return
	}
	if err := h.Q.UpdateOrderStatus(r.Context(), dbgen.UpdateOrderStatusParams{ID: ord.ID, Status: dbgen.OrderStatusCancelled}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": dbgen.OrderStatusCancelled}})
}

func (h *Handler) authedUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return pgtype.UUID{}, false
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	uID, err := cart.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	return uID, true
}

func summaryDTO(ord dbgen.Order) map[string]any {
	return map[string]any{
		"id":            cart.UUIDString(ord.ID),
		"status":        ord.Status,
		"subtotalCents": ord.SubtotalCents,
		"discountCents": ord.DiscountCents,
		"taxCents":      ord.TaxCents,
		"shippingCents": ord.ShippingCents,
		"totalCents":    ord.TotalCents,
		"promoCode":     ord.PromoCode.String,
		"createdAt":     ord.CreatedAt.Time,
	}
}
