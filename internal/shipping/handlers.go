package shipping

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/desertcandleworks/backend-store/internal/common"
)

// Handler exposes POST /api/v1/shipping/quote.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type quoteRequest struct {
	SubtotalCents int64   `json:"subtotalCents" validate:"gte=0"`
	DiscountCents int64   `json:"discountCents" validate:"gte=0"`
	PostalCode    string  `json:"postalCode" validate:"required,min=3,max=12"`
	Country       string  `json:"country" validate:"omitempty,len=2"`
	WeightOz      float64 `json:"weightOz" validate:"gte=0"`
}

// Quote prices shipping for the storefront's checkout preview.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping handler not configured", nil)
		return
	}
	var req quoteRequest
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
	quote, err := h.Svc.Quote(r.Context(), QuoteInput{
		SubtotalCents: req.SubtotalCents,
		DiscountCents: req.DiscountCents,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		WeightOz:      req.WeightOz,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to quote shipping", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}
