package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeSignatureTolerance = 5 * time.Minute

// Stripe implements Provider against the Stripe PaymentIntents API.
type Stripe struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	HTTPClient    Doer
	Now           func() time.Time
}

func (s Stripe) apiHost() string {
	host := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if host == "" {
		return "https://api.stripe.com"
	}
	return host
}

func (s Stripe) client() Doer {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// CreateIntent creates a PaymentIntent carrying the order id in metadata so
// the webhook can correlate the payment back to the order.
func (s Stripe) CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return IntentResponse{}, errors.New("order id is required")
	}
	if req.AmountCents <= 0 {
		return IntentResponse{}, errors.New("amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", currency)
	form.Set("metadata[order_id]", req.OrderID)
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	form.Set("automatic_payment_methods[enabled]", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiHost()+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return IntentResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", "order-intent-"+req.OrderID)

	resp, err := s.client().Do(httpReq)
	if err != nil {
		return IntentResponse{}, fmt.Errorf("stripe: create intent: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return IntentResponse{}, err
	}
	if resp.StatusCode >= 400 {
		return IntentResponse{}, fmt.Errorf("stripe: create intent: status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	var intent struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &intent); err != nil {
		return IntentResponse{}, fmt.Errorf("stripe: decode intent: %w", err)
	}
	if intent.ID == "" {
		return IntentResponse{}, errors.New("stripe: response missing intent id")
	}
	return IntentResponse{
		Provider:     "stripe",
		Ref:          intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header (v1 scheme: HMAC-SHA256
// over "<timestamp>.<payload>") and normalises the event payload.
func (s Stripe) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	ts, sigs, err := parseStripeSignature(r.Header.Get("Stripe-Signature"))
	if err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	eventTime := time.Unix(ts, 0)
	if drift := now().Sub(eventTime); drift > stripeSignatureTolerance || drift < -stripeSignatureTolerance {
		return WebhookVerifyResult{Valid: false, Err: errors.New("signature timestamp outside tolerance")}, nil
	}
	expected := s.computeSignature(ts, body)
	if expected == "" || !anySignatureMatches(expected, sigs) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string `json:"id"`
				Amount   int64  `json:"amount"`
				Metadata struct {
					OrderID string `json:"order_id"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	if event.Data.Object.Metadata.OrderID == "" {
		return WebhookVerifyResult{Valid: false, Err: errors.New("event missing order_id metadata")}, nil
	}
	return WebhookVerifyResult{
		Valid:           true,
		OrderID:         event.Data.Object.Metadata.OrderID,
		ProviderRef:     event.Data.Object.ID,
		AmountCents:     event.Data.Object.Amount,
		Status:          normaliseStripeEvent(event.Type),
		ProviderPayload: body,
	}, nil
}

func (s Stripe) computeSignature(ts int64, body []byte) string {
	key := strings.TrimSpace(s.WebhookSecret)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseStripeSignature splits "t=<ts>,v1=<sig>[,v1=<sig>...]" into its parts.
func parseStripeSignature(header string) (int64, []string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, errors.New("missing Stripe-Signature header")
	}
	var ts int64 = -1
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature timestamp: %w", err)
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts < 0 || len(sigs) == 0 {
		return 0, nil, errors.New("malformed Stripe-Signature header")
	}
	return ts, sigs, nil
}

func anySignatureMatches(expected string, provided []string) bool {
	for _, sig := range provided {
		if hmac.Equal([]byte(expected), []byte(strings.TrimSpace(sig))) {
			return true
		}
	}
	return false
}

func normaliseStripeEvent(eventType string) string {
	switch eventType {
	case "payment_intent.succeeded":
		return StatusPaid
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return StatusFailed
	default:
		return StatusPending
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
