package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const squareNotifyURL = "https://store.example.com/api/v1/payments/webhook/square"

func signSquare(key, url, body string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(url))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func squareRequest(signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(""))
	req.Header.Set("x-square-hmacsha256-signature", signature)
	return req
}

func TestSquareVerifyWebhook(t *testing.T) {
	sq := Square{SignatureKey: "sig_key", NotificationURL: squareNotifyURL}
	body := `{"type":"payment.updated","data":{"object":{"payment":{"id":"pmt_1","status":"COMPLETED","reference_id":"ord-1","amount_money":{"amount":5000}}}}}`

	result, err := sq.VerifyWebhook(squareRequest(signSquare("sig_key", squareNotifyURL, body)), []byte(body))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "ord-1", result.OrderID)
	require.Equal(t, "pmt_1", result.ProviderRef)
	require.Equal(t, int64(5000), result.AmountCents)
	require.Equal(t, StatusPaid, result.Status)
}

func TestSquareVerifyWebhookBadSignature(t *testing.T) {
	sq := Square{SignatureKey: "sig_key", NotificationURL: squareNotifyURL}
	body := `{"type":"payment.updated","data":{"object":{"payment":{"id":"pmt_1","status":"COMPLETED","reference_id":"ord-1"}}}}`

	result, err := sq.VerifyWebhook(squareRequest("bm90IGEgc2lnbmF0dXJl"), []byte(body))
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestSquareVerifyWebhookStatusMapping(t *testing.T) {
	sq := Square{SignatureKey: "sig_key", NotificationURL: squareNotifyURL}
	cases := map[string]string{
		"COMPLETED": StatusPaid,
		"FAILED":    StatusFailed,
		"CANCELED":  StatusFailed,
		"APPROVED":  StatusPending,
	}
	for status, want := range cases {
		body := `{"type":"payment.updated","data":{"object":{"payment":{"id":"pmt_1","status":"` + status + `","reference_id":"ord-1"}}}}`
		result, err := sq.VerifyWebhook(squareRequest(signSquare("sig_key", squareNotifyURL, body)), []byte(body))
		require.NoError(t, err)
		require.True(t, result.Valid)
		require.Equal(t, want, result.Status, "status %s", status)
	}
}
