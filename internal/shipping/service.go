package shipping

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Service turns carrier rates into a single shipping quote, applying the
// store's free-shipping rule before any carrier is consulted.
type Service struct {
	Client              Client
	FreeShippingMinimum int64
	FlatShippingCents   int64
	OriginPostalCode    string
	Log                 zerolog.Logger
}

// QuoteInput describes the shipment to price. Subtotal and discount are the
// cart's current totals; the free-shipping threshold applies to their
// difference.
type QuoteInput struct {
	SubtotalCents int64
	DiscountCents int64
	PostalCode    string
	Country       string
	WeightOz      float64
}

// Quote is the selected shipping price plus the full rate table for display.
type Quote struct {
	ShippingCents int64  `json:"shippingCents"`
	Service       string `json:"service"`
	Free          bool   `json:"free"`
	Rates         []Rate `json:"rates,omitempty"`
}

// Quote prices a shipment. Carrier failures degrade to the flat rate so
// checkout never blocks on the rates API.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if s == nil {
		return Quote{}, errors.New("shipping service not configured")
	}
	merch := in.SubtotalCents - in.DiscountCents
	if merch < 0 {
		merch = 0
	}
	if merch > 0 && merch >= s.FreeShippingMinimum {
		return Quote{ShippingCents: 0, Service: "free", Free: true}, nil
	}
	if s.Client == nil {
		return Quote{ShippingCents: s.FlatShippingCents, Service: "flat"}, nil
	}
	rates, err := s.Client.Rates(ctx, RateRequest{
		FromPostalCode: s.OriginPostalCode,
		ToPostalCode:   in.PostalCode,
		ToCountry:      in.Country,
		WeightOz:       in.WeightOz,
	})
	if err != nil || len(rates) == 0 {
		if err != nil {
			s.Log.Warn().Err(err).Str("postalCode", in.PostalCode).Msg("rate lookup failed, using flat rate")
		}
		return Quote{ShippingCents: s.FlatShippingCents, Service: "flat"}, nil
	}
	best := rates[0]
	for _, rate := range rates[1:] {
		if rate.CostCents < best.CostCents {
			best = rate
		}
	}
	return Quote{ShippingCents: best.CostCents, Service: best.Service, Rates: rates}, nil
}
