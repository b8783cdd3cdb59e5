package notify

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
)

type stubQuerier struct {
	order dbgen.Order
	user  dbgen.User
}

func (s stubQuerier) GetOrderByID(context.Context, pgtype.UUID) (dbgen.Order, error) {
	return s.order, nil
}

func (s stubQuerier) GetUserByID(context.Context, pgtype.UUID) (dbgen.User, error) {
	return s.user, nil
}

func TestEmailNotifierSendsConfirmationOnPaid(t *testing.T) {
	orderID, err := cart.ToUUID("9b2f63f0-64a5-4b3a-9d2e-52b3bb10a001")
	require.NoError(t, err)
	userID, err := cart.ToUUID("9b2f63f0-64a5-4b3a-9d2e-52b3bb10a002")
	require.NoError(t, err)

	mail := &common.InMemoryEmail{}
	notifier := EmailNotifier{
		Q: stubQuerier{
			order: dbgen.Order{ID: orderID, UserID: userID, TotalCents: 4350},
			user:  dbgen.User{ID: userID, Name: "Joss", Email: "joss@example.com"},
		},
		Mail:    mail,
		Enabled: true,
		Log:     zerolog.Nop(),
	}

	err = notifier.Notify(context.Background(), dbgen.DomainEvent{
		Topic:       events.TopicOrderPaid,
		AggregateID: orderID,
	})
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "joss@example.com", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].HTML, "$43.50")
}

func TestEmailNotifierIgnoresOtherTopics(t *testing.T) {
	mail := &common.InMemoryEmail{}
	notifier := EmailNotifier{Q: stubQuerier{}, Mail: mail, Enabled: true, Log: zerolog.Nop()}

	err := notifier.Notify(context.Background(), dbgen.DomainEvent{Topic: events.TopicOrderCreated})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

func TestEmailNotifierDisabled(t *testing.T) {
	mail := &common.InMemoryEmail{}
	notifier := EmailNotifier{Q: stubQuerier{}, Mail: mail, Log: zerolog.Nop()}

	err := notifier.Notify(context.Background(), dbgen.DomainEvent{Topic: events.TopicOrderPaid})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}
