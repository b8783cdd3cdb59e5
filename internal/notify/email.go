package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
)

// Querier resolves the recipient for an order-scoped event.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
}

// EmailNotifier sends transactional mail in response to domain events.
// It implements events.Notifier; failures are logged and surfaced to the
// bus but never block the emitting request path.
type EmailNotifier struct {
	Q       Querier
	Mail    common.EmailSender
	From    string
	Enabled bool
	Log     zerolog.Logger
}

// Notify sends the order confirmation when an order is paid.
func (n EmailNotifier) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	if !n.Enabled || n.Mail == nil || n.Q == nil {
		return nil
	}
	if event.Topic != events.TopicOrderPaid {
		return nil
	}

	order, err := n.Q.GetOrderByID(ctx, event.AggregateID)
	if err != nil {
		return fmt.Errorf("notify: load order: %w", err)
	}
	user, err := n.Q.GetUserByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("notify: load user: %w", err)
	}

	subject := "Your Desert Candle Works order is confirmed"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received your payment of $%d.%02d. Your candles are headed to the pouring bench and we will email you again when they ship.</p>",
		user.Name, order.TotalCents/100, order.TotalCents%100,
	)
	if err := n.Mail.Send(user.Email, subject, html); err != nil {
		n.Log.Error().Err(err).Str("order_id", cart.UUIDString(order.ID)).Msg("send confirmation email")
		return fmt.Errorf("notify: send email: %w", err)
	}
	return nil
}
