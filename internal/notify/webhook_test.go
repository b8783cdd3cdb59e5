package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/desertcandleworks/backend-store/internal/cart"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
)

func TestWebhookNotifierSignsAndDelivers(t *testing.T) {
	eventID, err := cart.ToUUID("9b2f63f0-64a5-4b3a-9d2e-52b3bb10a010")
	require.NoError(t, err)

	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier := WebhookNotifier{
		Endpoints: []string{srv.URL},
		Secret:    "whsec",
		Client:    srv.Client(),
		Log:       zerolog.Nop(),
	}
	err = notifier.Notify(context.Background(), dbgen.DomainEvent{
		ID:          eventID,
		Topic:       events.TopicOrderPaid,
		AggregateID: eventID,
		Payload:     []byte(`{"amountCents":4350}`),
	})
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	require.Equal(t, events.TopicOrderPaid, envelope["topic"])

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(gotBody)
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestWebhookNotifierReportsEndpointFailures(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	goodHits := 0
	goodCounting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		goodHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer goodCounting.Close()

	notifier := WebhookNotifier{
		Endpoints: []string{bad.URL, goodCounting.URL},
		Client:    http.DefaultClient,
		Log:       zerolog.Nop(),
	}
	err := notifier.Notify(context.Background(), dbgen.DomainEvent{Topic: events.TopicOrderCancelled})
	require.Error(t, err)
	require.Equal(t, 1, goodHits)
}

func TestWebhookNotifierNoEndpointsIsNoop(t *testing.T) {
	err := WebhookNotifier{Client: http.DefaultClient}.Notify(context.Background(), dbgen.DomainEvent{Topic: events.TopicOrderPaid})
	require.NoError(t, err)
}
