package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/cart"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// Doer issues outbound HTTP requests. Both *http.Client and the retrying
// breaker-backed client satisfy it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// WebhookNotifier forwards domain events to configured endpoint URLs so
// external systems (the admin dashboard, a Zapier hook) can react. Payloads
// are signed with HMAC-SHA256 over the raw body.
type WebhookNotifier struct {
	Endpoints []string
	Secret    string
	Client    Doer
	Log       zerolog.Logger
}

type webhookEnvelope struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Notify delivers the event to every endpoint, joining failures so one slow
// endpoint does not hide errors from the others.
func (n WebhookNotifier) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	if len(n.Endpoints) == 0 || n.Client == nil {
		return nil
	}

	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	body, err := json.Marshal(webhookEnvelope{
		ID:          cart.UUIDString(event.ID),
		Topic:       event.Topic,
		AggregateID: cart.UUIDString(event.AggregateID),
		Payload:     payload,
		OccurredAt:  event.OccurredAt.Time,
	})
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}

	var joined error
	for _, endpoint := range n.Endpoints {
		if err := n.deliver(ctx, endpoint, body); err != nil {
			n.Log.Error().Err(err).Str("endpoint", endpoint).Str("topic", event.Topic).Msg("deliver webhook")
			joined = errors.Join(joined, err)
		}
	}
	return joined
}

func (n WebhookNotifier) deliver(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Secret != "" {
		req.Header.Set("X-Webhook-Signature", n.sign(body))
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify: endpoint %s returned %s", endpoint, resp.Status)
	}
	return nil
}

func (n WebhookNotifier) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(n.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
