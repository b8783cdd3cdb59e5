package payment

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
	"github.com/desertcandleworks/backend-store/internal/obs"
)

const maxWebhookBody = 1 << 20

// Store captures the database methods the webhook handler needs.
type Store interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	MarkOrderPaid(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	GetPaymentByProviderRef(ctx context.Context, arg dbgen.GetPaymentByProviderRefParams) (dbgen.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (dbgen.Payment, error)
	InsertPayment(ctx context.Context, arg dbgen.InsertPaymentParams) (dbgen.Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg dbgen.UpdatePaymentStatusParams) error
}

// PromoSettler commits a promotion redemption once the order is paid.
type PromoSettler interface {
	Settle(ctx context.Context, code string, orderID, userID pgtype.UUID, discountCents int64) error
}

// Webhook processes inbound provider callbacks. Replay protection relies on
// Redis SETNX over a body digest; the paid transition itself is guarded by
// the status condition in MarkOrderPaid, so a replayed delivery that slips
// past Redis still cannot settle twice.
type Webhook struct {
	Q         Store
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Promo     PromoSettler
	Bus       *events.Bus
	Log       zerolog.Logger
}

// Handle is mounted at POST /api/v1/webhooks/payment/{provider}.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "webhook handler not configured", nil)
		return
	}
	providerName := chi.URLParam(r, "provider")
	provider, ok := h.Providers[providerName]
	if !ok || provider == nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown payment provider", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.record(providerName, "read_error")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unable to read body", nil)
		return
	}
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		h.record(providerName, "verify_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "webhook verification failed", nil)
		return
	}
	if !result.Valid {
		h.record(providerName, "invalid_signature")
		h.Log.Warn().Str("provider", providerName).AnErr("cause", result.Err).Msg("rejected payment webhook")
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "webhook signature rejected", nil)
		return
	}
	if h.isReplay(r.Context(), providerName, body) {
		h.record(providerName, "duplicate")
		w.WriteHeader(http.StatusOK)
		return
	}
	orderID, err := cart.ToUUID(result.OrderID)
	if err != nil {
		h.record(providerName, "bad_order_id")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order reference", nil)
		return
	}
	order, err := h.Q.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.record(providerName, "unknown_order")
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		h.record(providerName, "error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order lookup failed", nil)
		return
	}
	if result.AmountCents > 0 && result.AmountCents != order.TotalCents {
		h.record(providerName, "amount_mismatch")
		h.Log.Error().
			Str("provider", providerName).
			Str("orderId", result.OrderID).
			Int64("reported", result.AmountCents).
			Int64("expected", order.TotalCents).
			Msg("payment webhook amount mismatch")
		common.JSONError(w, http.StatusBadRequest, "AMOUNT_MISMATCH", "reported amount does not match order total", nil)
		return
	}

	switch result.Status {
	case StatusPaid:
		h.settlePaid(r.Context(), w, providerName, order, result)
	case StatusFailed:
		h.recordFailure(r.Context(), providerName, order, result)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.record(providerName, "ignored")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Webhook) settlePaid(ctx context.Context, w http.ResponseWriter, providerName string, order dbgen.Order, result WebhookVerifyResult) {
	paid, err := h.Q.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Not PENDING_PAYMENT anymore: a concurrent delivery won.
			h.record(providerName, "already_settled")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.record(providerName, "error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to mark order paid", nil)
		return
	}
	if err := h.upsertPaymentStatus(ctx, providerName, paid.ID, result, StatusPaid); err != nil {
		h.Log.Error().Err(err).Str("orderId", cart.UUIDString(paid.ID)).Msg("payment record update failed after settle")
	}
	if h.Promo != nil && paid.PromoCode.Valid && paid.PromoCode.String != "" {
		if err := h.Promo.Settle(ctx, paid.PromoCode.String, paid.ID, paid.UserID, paid.DiscountCents); err != nil {
			h.Log.Error().Err(err).
				Str("code", paid.PromoCode.String).
				Str("orderId", cart.UUIDString(paid.ID)).
				Msg("promotion settlement failed")
		}
	}
	h.emit(ctx, events.TopicOrderPaid, paid.ID, map[string]any{
		"orderId":    cart.UUIDString(paid.ID),
		"provider":   providerName,
		"totalCents": paid.TotalCents,
	})
	h.record(providerName, "paid")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Webhook) recordFailure(ctx context.Context, providerName string, order dbgen.Order, result WebhookVerifyResult) {
	if err := h.upsertPaymentStatus(ctx, providerName, order.ID, result, StatusFailed); err != nil {
		h.Log.Error().Err(err).Str("orderId", cart.UUIDString(order.ID)).Msg("payment failure record update failed")
	}
	h.emit(ctx, events.TopicPaymentFailed, order.ID, map[string]any{
		"orderId":  cart.UUIDString(order.ID),
		"provider": providerName,
	})
	h.record(providerName, "failed")
}

// upsertPaymentStatus finds the payment row by provider ref, falling back to
// the latest row for the order, and inserts one when the webhook arrived
// before any intent was recorded (hosted checkout flows).
func (h *Webhook) upsertPaymentStatus(ctx context.Context, providerName string, orderID pgtype.UUID, result WebhookVerifyResult, status string) error {
	if result.ProviderRef != "" {
		record, err := h.Q.GetPaymentByProviderRef(ctx, dbgen.GetPaymentByProviderRefParams{
			Provider:    providerName,
			ProviderRef: pgtype.Text{String: result.ProviderRef, Valid: true},
		})
		if err == nil {
			return h.Q.UpdatePaymentStatus(ctx, dbgen.UpdatePaymentStatusParams{ID: record.ID, Status: status})
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}
	record, err := h.Q.GetPaymentByOrder(ctx, orderID)
	if err == nil {
		return h.Q.UpdatePaymentStatus(ctx, dbgen.UpdatePaymentStatusParams{ID: record.ID, Status: status})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	_, err = h.Q.InsertPayment(ctx, dbgen.InsertPaymentParams{
		OrderID:     orderID,
		Provider:    providerName,
		ProviderRef: pgtype.Text{String: result.ProviderRef, Valid: result.ProviderRef != ""},
		Status:      status,
		AmountCents: result.AmountCents,
	})
	return err
}

func (h *Webhook) isReplay(ctx context.Context, providerName string, body []byte) bool {
	if h.Replay == nil {
		return false
	}
	ttl := h.ReplayTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	key := fmt.Sprintf("wh:%s:%x", providerName, sha256.Sum256(body))
	fresh, err := h.Replay.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		// Redis down: let the status-guarded settle catch duplicates.
		h.Log.Warn().Err(err).Msg("webhook replay check unavailable")
		return false
	}
	return !fresh
}

func (h *Webhook) emit(ctx context.Context, topic string, orderID pgtype.UUID, payload map[string]any) {
	if h.Bus == nil {
		return
	}
	if _, err := h.Bus.Emit(ctx, topic, orderID, payload); err != nil {
		h.Log.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}

func (h *Webhook) record(providerName, result string) {
	if obs.PaymentWebhookTotal == nil {
		return
	}
	obs.PaymentWebhookTotal.WithLabelValues(providerName, result).Inc()
}
