package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/cart"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

var (
	ErrOrderNotPayable = errors.New("order does not accept payments")
	ErrAlreadyPaid     = errors.New("order already paid")
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// Querier captures the database methods the payment service needs.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	GetPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (dbgen.Payment, error)
	InsertPayment(ctx context.Context, arg dbgen.InsertPaymentParams) (dbgen.Payment, error)
}

// Service starts payment intents and reports consolidated payment status.
type Service struct {
	Q               Querier
	Providers       map[string]Provider
	DefaultProvider string
	Currency        string
}

// Intent is what the storefront needs to drive the provider's client flow.
type Intent struct {
	PaymentID    string `json:"paymentId"`
	Provider     string `json:"provider"`
	Ref          string `json:"ref"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	AmountCents  int64  `json:"amountCents"`
}

// CreateIntent starts a payment for a pending order with the named provider.
func (s *Service) CreateIntent(ctx context.Context, orderID pgtype.UUID, providerName string) (Intent, error) {
	var zero Intent
	if s == nil || s.Q == nil {
		return zero, errors.New("payment service not configured")
	}
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	if providerName == "" {
		providerName = s.DefaultProvider
	}
	provider, ok := s.Providers[providerName]
	if !ok || provider == nil {
		return zero, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return zero, err
	}
	switch order.Status {
	case dbgen.OrderStatusPendingPayment:
	case dbgen.OrderStatusPaid, dbgen.OrderStatusFulfilled:
		return zero, ErrAlreadyPaid
	default:
		return zero, ErrOrderNotPayable
	}
	if existing, err := s.Q.GetPaymentByOrder(ctx, orderID); err == nil {
		if existing.Status == StatusPaid {
			return zero, ErrAlreadyPaid
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return zero, err
	}

	resp, err := provider.CreateIntent(ctx, IntentRequest{
		OrderID:     cart.UUIDString(orderID),
		AmountCents: order.TotalCents,
		Currency:    s.Currency,
		Description: "Desert Candle Works order " + cart.UUIDString(orderID),
	})
	if err != nil {
		return zero, err
	}
	record, err := s.Q.InsertPayment(ctx, dbgen.InsertPaymentParams{
		OrderID:     orderID,
		Provider:    providerName,
		ProviderRef: pgtype.Text{String: resp.Ref, Valid: resp.Ref != ""},
		Status:      StatusPending,
		AmountCents: order.TotalCents,
	})
	if err != nil {
		return zero, err
	}
	return Intent{
		PaymentID:    cart.UUIDString(record.ID),
		Provider:     providerName,
		Ref:          resp.Ref,
		ClientSecret: resp.ClientSecret,
		RedirectURL:  resp.RedirectURL,
		AmountCents:  record.AmountCents,
	}, nil
}

// Status returns the best-known payment status for an order. With no payment
// record yet the order status decides.
func (s *Service) Status(ctx context.Context, orderID pgtype.UUID) (string, error) {
	if s == nil || s.Q == nil {
		return "", errors.New("payment service not configured")
	}
	record, err := s.Q.GetPaymentByOrder(ctx, orderID)
	if err == nil {
		return record.Status, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	switch order.Status {
	case dbgen.OrderStatusPaid, dbgen.OrderStatusFulfilled:
		return StatusPaid, nil
	case dbgen.OrderStatusCancelled:
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
