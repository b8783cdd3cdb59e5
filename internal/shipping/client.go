package shipping

import "context"

// RateRequest describes a shipping rate lookup.
type RateRequest struct {
	FromPostalCode string
	ToPostalCode   string
	ToCountry      string
	WeightOz       float64
}

// Rate is a single carrier service option.
type Rate struct {
	Carrier      string `json:"carrier"`
	Service      string `json:"service"`
	CostCents    int64  `json:"costCents"`
	DeliveryDays int    `json:"deliveryDays,omitempty"`
}

// Client quotes carrier rates for a shipment.
type Client interface {
	Rates(ctx context.Context, req RateRequest) ([]Rate, error)
}

// StaticClient returns canned rates for development and tests.
type StaticClient struct {
	Canned []Rate
}

func (c StaticClient) Rates(context.Context, RateRequest) ([]Rate, error) {
	if len(c.Canned) > 0 {
		return c.Canned, nil
	}
	return []Rate{
		{Carrier: "stamps_com", Service: "USPS Ground Advantage", CostCents: 599, DeliveryDays: 3},
		{Carrier: "stamps_com", Service: "USPS Priority Mail", CostCents: 899, DeliveryDays: 2},
	}, nil
}
