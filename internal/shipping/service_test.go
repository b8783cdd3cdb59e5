package shipping

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingClient struct{}

func (failingClient) Rates(context.Context, RateRequest) ([]Rate, error) {
	return nil, errors.New("carrier unavailable")
}

func newTestService(client Client) *Service {
	return &Service{
		Client:              client,
		FreeShippingMinimum: 7500,
		FlatShippingCents:   599,
		OriginPostalCode:    "85001",
		Log:                 zerolog.Nop(),
	}
}

func TestQuoteFreeOverThreshold(t *testing.T) {
	svc := newTestService(failingClient{})
	quote, err := svc.Quote(context.Background(), QuoteInput{SubtotalCents: 8000, PostalCode: "10001"})
	require.NoError(t, err)
	require.True(t, quote.Free)
	require.Zero(t, quote.ShippingCents)
}

func TestQuoteDiscountCanDropBelowThreshold(t *testing.T) {
	svc := newTestService(StaticClient{})
	quote, err := svc.Quote(context.Background(), QuoteInput{SubtotalCents: 8000, DiscountCents: 1000, PostalCode: "10001"})
	require.NoError(t, err)
	require.False(t, quote.Free)
	require.Equal(t, int64(599), quote.ShippingCents)
}

func TestQuotePicksCheapestRate(t *testing.T) {
	svc := newTestService(StaticClient{Canned: []Rate{
		{Service: "Priority", CostCents: 899},
		{Service: "Ground", CostCents: 549},
		{Service: "Express", CostCents: 2599},
	}})
	quote, err := svc.Quote(context.Background(), QuoteInput{SubtotalCents: 3000, PostalCode: "10001"})
	require.NoError(t, err)
	require.Equal(t, int64(549), quote.ShippingCents)
	require.Equal(t, "Ground", quote.Service)
	require.Len(t, quote.Rates, 3)
}

func TestQuoteFallsBackToFlatRate(t *testing.T) {
	svc := newTestService(failingClient{})
	quote, err := svc.Quote(context.Background(), QuoteInput{SubtotalCents: 3000, PostalCode: "10001"})
	require.NoError(t, err)
	require.Equal(t, int64(599), quote.ShippingCents)
	require.Equal(t, "flat", quote.Service)
}

func TestShipStationRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments/getrates", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"serviceName":"USPS Ground Advantage","serviceCode":"usps_ground_advantage","shipmentCost":5.44,"otherCost":0.55}]`)
	}))
	defer srv.Close()

	client := ShipStation{APIKey: "key", APISecret: "secret", BaseURL: srv.URL}
	rates, err := client.Rates(context.Background(), RateRequest{FromPostalCode: "85001", ToPostalCode: "10001", WeightOz: 24})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "USPS Ground Advantage", rates[0].Service)
	require.Equal(t, int64(599), rates[0].CostCents)
}
