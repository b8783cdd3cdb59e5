package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
)

// Handler exposes payment intent creation and status polling.
type Handler struct {
	Svc *Service
}

type intentRequest struct {
	OrderID  string `json:"orderId"`
	Provider string `json:"provider"`
}

// Intent handles POST /api/v1/payments/intent for the authenticated user.
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment handler not configured", nil)
		return
	}
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	orderID, ok := h.ownedOrder(w, r, req.OrderID)
	if !ok {
		return
	}
	intent, err := h.Svc.CreateIntent(r.Context(), orderID, req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownProvider):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, ErrAlreadyPaid):
			common.JSONError(w, http.StatusConflict, "ALREADY_PAID", "order already paid", nil)
		case errors.Is(err, ErrOrderNotPayable):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order does not accept payments", nil)
		case errors.Is(err, pgx.ErrNoRows):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		default:
			common.JSONError(w, http.StatusBadGateway, "PROVIDER_ERROR", "payment provider request failed", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": intent})
}

// Status handles GET /api/v1/payments/{orderId}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment handler not configured", nil)
		return
	}
	orderID, ok := h.ownedOrder(w, r, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}
	status, err := h.Svc.Status(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "status lookup failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": status}})
}

// ownedOrder parses the order id and confirms the order belongs to the
// authenticated user, answering 404 on foreign orders.
func (h *Handler) ownedOrder(w http.ResponseWriter, r *http.Request, raw string) (pgtype.UUID, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	uID, err := cart.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	orderID, err := cart.ToUUID(strings.TrimSpace(raw))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return pgtype.UUID{}, false
	}
	order, err := h.Svc.Q.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return pgtype.UUID{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order lookup failed", nil)
		return pgtype.UUID{}, false
	}
	if !cart.UUIDEqual(order.UserID, uID) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return pgtype.UUID{}, false
	}
	return orderID, true
}
