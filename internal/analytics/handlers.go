package analytics

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/common"
)

// Handler exposes the page-view ingest endpoint and admin dashboards.
type Handler struct {
	Svc *Service
}

type pageViewRequest struct {
	Path      string `json:"path"`
	VisitorID string `json:"visitorId"`
	Referrer  string `json:"referrer"`
}

// PageView handles POST /api/v1/analytics/page-view from the storefront.
func (h *Handler) PageView(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "analytics service not configured", nil)
		return
	}
	var req pageViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" || len(req.Path) > 512 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "path is required", nil)
		return
	}
	if err := h.Svc.RecordPageView(r.Context(), req.Path, req.VisitorID, req.Referrer); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to record page view", nil)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// DailySales handles GET /api/v1/admin/analytics/daily-sales.
func (h *Handler) DailySales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.SalesRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load sales", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"day":           dayString(row.Day),
			"orders":        row.Orders,
			"revenueCents":  row.RevenueCents,
			"discountCents": row.DiscountCents,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopProducts handles GET /api/v1/admin/analytics/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	limit := int32(common.AtoiDefault(r.URL.Query().Get("limit"), 10))
	rows, err := h.Svc.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load top products", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"productSlug":  row.ProductSlug,
			"name":         row.Name,
			"units":        row.Units,
			"revenueCents": row.RevenueCents,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// PageViews handles GET /api/v1/admin/analytics/page-views.
func (h *Handler) PageViews(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.PageViewsRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load page views", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"day":   dayString(row.Day),
			"count": row.Count,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// parseRange reads from/to (RFC3339) or days, defaulting to the service's
// configured window ending now.
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "analytics service not configured", nil)
		return time.Time{}, time.Time{}, false
	}
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	now := h.Svc.now()
	var from, to time.Time
	if fromStr != "" && toStr != "" {
		var err error
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
			return time.Time{}, time.Time{}, false
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
			return time.Time{}, time.Time{}, false
		}
	} else {
		days := h.Svc.DefaultRange
		if days <= 0 {
			days = 30
		}
		if raw := query.Get("days"); raw != "" {
			if parsed := common.AtoiDefault(raw, days); parsed > 0 {
				days = parsed
			}
		}
		to = now
		from = to.AddDate(0, 0, -days)
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func dayString(day pgtype.Date) string {
	if !day.Valid {
		return ""
	}
	return day.Time.Format("2006-01-02")
}
