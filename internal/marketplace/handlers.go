package marketplace

import (
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
)

// Handler exposes the admin marketplace endpoints.
type Handler struct {
	Q           Querier
	Tasks       *asynq.Client
	Marketplace string
}

func (h *Handler) marketplace() string {
	if h.Marketplace != "" {
		return h.Marketplace
	}
	return MarketplaceTikTok
}

// Listings handles GET /api/v1/admin/marketplace/listings.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "marketplace queries not configured", nil)
		return
	}
	rows, err := h.Q.ListMarketplaceListings(r.Context(), h.marketplace())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list marketplace listings", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"variantId":   cart.UUIDString(row.VariantID),
			"marketplace": row.Marketplace,
			"status":      row.Status,
		}
		if row.ExternalID.Valid {
			entry["externalId"] = row.ExternalID.String
		}
		if row.LastSyncedAt.Valid {
			entry["lastSyncedAt"] = row.LastSyncedAt.Time
		}
		if row.LastError.Valid {
			entry["lastError"] = row.LastError.String
		}
		out = append(out, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TriggerSync handles POST /api/v1/admin/marketplace/sync by enqueueing a
// sync run for the worker.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Tasks == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "task queue not configured", nil)
		return
	}
	task, err := NewSyncTask(h.marketplace())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build sync task", nil)
		return
	}
	info, err := h.Tasks.EnqueueContext(r.Context(), task)
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "failed to enqueue sync", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]any{"taskId": info.ID, "queue": info.Queue}})
}
