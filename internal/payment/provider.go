package payment

import (
	"context"
	"net/http"
)

// Payment record statuses as stored in the payments table.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusFailed  = "FAILED"
)

// IntentRequest carries everything a provider needs to start a payment.
type IntentRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Description string
}

// IntentResponse is the provider's handle for the started payment.
// ClientSecret is set for embedded flows (Stripe), RedirectURL for
// hosted checkout pages (Square payment links).
type IntentResponse struct {
	Provider     string
	Ref          string
	ClientSecret string
	RedirectURL  string
}

// WebhookVerifyResult is the normalised outcome of a provider callback.
type WebhookVerifyResult struct {
	Valid           bool
	OrderID         string
	ProviderRef     string
	AmountCents     int64
	Status          string
	ProviderPayload []byte
	Err             error
}

// Provider abstracts a payment gateway integration.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error)
}

// Doer issues outbound HTTP requests. Both *http.Client and the retrying
// breaker-backed client satisfy it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}
