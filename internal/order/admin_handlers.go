package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
)

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Q   Querier
	Bus *events.Bus
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus updates the order status with state-machine validation.
// Admins can fulfil paid orders or cancel anything not yet fulfilled.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	oID, err := cart.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
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
	if !transitionAllowed(ord.Status, req.Status) {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "state transition not allowed", nil)
		return
	}
	if err := h.Q.UpdateOrderStatus(r.Context(), dbgen.UpdateOrderStatusParams{ID: oID, Status: req.Status}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	h.emitStatus(r.Context(), oID, req.Status)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) emitStatus(ctx context.Context, orderID pgtype.UUID, status string) {
	if h.Bus == nil || status != dbgen.OrderStatusCancelled {
		return
	}
	_, _ = h.Bus.Emit(ctx, events.TopicOrderCancelled, orderID, map[string]any{
		"orderId": cart.UUIDString(orderID),
	})
}

func transitionAllowed(current, target string) bool {
	switch target {
	case dbgen.OrderStatusFulfilled:
		return current == dbgen.OrderStatusPaid
	case dbgen.OrderStatusCancelled:
		return current == dbgen.OrderStatusPendingPayment || current == dbgen.OrderStatusPaid
	default:
		return false
	}
}
