package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Square implements Provider using hosted payment links. The webhook
// signature covers the notification URL concatenated with the raw body,
// base64-encoded (Square's hmacsha256 scheme).
type Square struct {
	AccessToken     string
	SignatureKey    string
	LocationID      string
	NotificationURL string
	BaseURL         string
	HTTPClient      Doer
}

func (sq Square) apiHost() string {
	host := strings.TrimRight(strings.TrimSpace(sq.BaseURL), "/")
	if host == "" {
		return "https://connect.squareup.com"
	}
	return host
}

func (sq Square) client() Doer {
	if sq.HTTPClient != nil {
		return sq.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// CreateIntent creates a payment link; the order id travels in the
// underlying Square order's reference_id.
func (sq Square) CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return IntentResponse{}, errors.New("order id is required")
	}
	if req.AmountCents <= 0 {
		return IntentResponse{}, errors.New("amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	name := req.Description
	if name == "" {
		name = "Order " + req.OrderID
	}
	payload := map[string]any{
		"idempotency_key": "order-link-" + req.OrderID,
		"quick_pay": map[string]any{
			"name":        name,
			"location_id": sq.LocationID,
			"price_money": map[string]any{
				"amount":   req.AmountCents,
				"currency": currency,
			},
		},
		"payment_note": req.OrderID,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return IntentResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sq.apiHost()+"/v2/online-checkout/payment-links", bytes.NewReader(encoded))
	if err != nil {
		return IntentResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+sq.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := sq.client().Do(httpReq)
	if err != nil {
		return IntentResponse{}, fmt.Errorf("square: create payment link: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return IntentResponse{}, err
	}
	if resp.StatusCode >= 400 {
		return IntentResponse{}, fmt.Errorf("square: create payment link: status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	var result struct {
		PaymentLink struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"payment_link"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return IntentResponse{}, fmt.Errorf("square: decode payment link: %w", err)
	}
	if result.PaymentLink.ID == "" {
		return IntentResponse{}, errors.New("square: response missing payment link id")
	}
	return IntentResponse{
		Provider:    "square",
		Ref:         result.PaymentLink.ID,
		RedirectURL: result.PaymentLink.URL,
	}, nil
}

// VerifyWebhook validates the x-square-hmacsha256-signature header and
// normalises payment.updated events.
func (sq Square) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	expected := sq.computeSignature(body)
	provided := strings.TrimSpace(r.Header.Get("x-square-hmacsha256-signature"))
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Payment struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					ReferenceID string `json:"reference_id"`
					Note        string `json:"note"`
					AmountMoney struct {
						Amount int64 `json:"amount"`
					} `json:"amount_money"`
				} `json:"payment"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	pay := event.Data.Object.Payment
	orderID := pay.ReferenceID
	if orderID == "" {
		orderID = pay.Note
	}
	if orderID == "" {
		return WebhookVerifyResult{Valid: false, Err: errors.New("event missing order reference")}, nil
	}
	return WebhookVerifyResult{
		Valid:           true,
		OrderID:         orderID,
		ProviderRef:     pay.ID,
		AmountCents:     pay.AmountMoney.Amount,
		Status:          normaliseSquareStatus(pay.Status),
		ProviderPayload: body,
	}, nil
}

func (sq Square) computeSignature(body []byte) string {
	key := strings.TrimSpace(sq.SignatureKey)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(sq.NotificationURL))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func normaliseSquareStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED":
		return StatusPaid
	case "FAILED", "CANCELED":
		return StatusFailed
	default:
		return StatusPending
	}
}
