package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/desertcandleworks/backend-store/internal/common"
)

// Handler exposes POST /api/v1/checkout.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Create places an order from a cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
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
	order, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart is empty", nil)
		case errors.Is(err, ErrInsufficientStock):
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to place order", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": order})
}
