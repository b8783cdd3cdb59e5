package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func signStripe(secret string, ts int64, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func stripeRequest(header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(""))
	req.Header.Set("Stripe-Signature", header)
	return req
}

func TestStripeVerifyWebhook(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}
	body := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":5000,"metadata":{"order_id":"ord-1"}}}}`
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signStripe("whsec_test", now.Unix(), body))

	result, err := s.VerifyWebhook(stripeRequest(header), []byte(body))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "ord-1", result.OrderID)
	require.Equal(t, "pi_1", result.ProviderRef)
	require.Equal(t, int64(5000), result.AmountCents)
	require.Equal(t, StatusPaid, result.Status)
}

func TestStripeVerifyWebhookBadSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}
	body := `{"type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-1"}}}}`
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), strings.Repeat("0", 64))

	result, err := s.VerifyWebhook(stripeRequest(header), []byte(body))
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestStripeVerifyWebhookStaleTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}
	body := `{"type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-1"}}}}`
	old := now.Add(-10 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", old, signStripe("whsec_test", old, body))

	result, err := s.VerifyWebhook(stripeRequest(header), []byte(body))
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestStripeVerifyWebhookFailedEvent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}
	body := `{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","amount":5000,"metadata":{"order_id":"ord-2"}}}}`
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signStripe("whsec_test", now.Unix(), body))

	result, err := s.VerifyWebhook(stripeRequest(header), []byte(body))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, StatusFailed, result.Status)
}

func TestStripeCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "5000", r.PostFormValue("amount"))
		require.Equal(t, "ord-1", r.PostFormValue("metadata[order_id]"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_9","client_secret":"pi_9_secret"}`)
	}))
	defer srv.Close()

	s := Stripe{SecretKey: "sk_test", BaseURL: srv.URL}
	resp, err := s.CreateIntent(context.Background(), IntentRequest{OrderID: "ord-1", AmountCents: 5000})
	require.NoError(t, err)
	require.Equal(t, "stripe", resp.Provider)
	require.Equal(t, "pi_9", resp.Ref)
	require.Equal(t, "pi_9_secret", resp.ClientSecret)
}
