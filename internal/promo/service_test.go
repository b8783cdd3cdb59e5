package promo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type stubQuerier struct {
	promo           dbgen.Promotion
	promoErr        error
	automatic       []dbgen.Promotion
	completedOrders int64
	lifetimeSpend   int64
	userRedemptions int64
	existingRedeem  bool

	inserted    *dbgen.InsertRedemptionParams
	incremented int
}

func (s *stubQuerier) GetPromotionByCode(_ context.Context, _ string) (dbgen.Promotion, error) {
	return s.promo, s.promoErr
}

func (s *stubQuerier) GetPromotionByCodeForUpdate(_ context.Context, _ string) (dbgen.Promotion, error) {
	return s.promo, s.promoErr
}

func (s *stubQuerier) ListActiveAutomaticPromotions(_ context.Context) ([]dbgen.Promotion, error) {
	return s.automatic, nil
}

func (s *stubQuerier) CountRedemptionsByUser(_ context.Context, _ dbgen.CountRedemptionsByUserParams) (int64, error) {
	return s.userRedemptions, nil
}

func (s *stubQuerier) CountCompletedOrdersByUser(_ context.Context, _ pgtype.UUID) (int64, error) {
	return s.completedOrders, nil
}

func (s *stubQuerier) SumLifetimeSpendByUser(_ context.Context, _ pgtype.UUID) (int64, error) {
	return s.lifetimeSpend, nil
}

func (s *stubQuerier) GetRedemptionByOrder(_ context.Context, _ dbgen.GetRedemptionByOrderParams) (dbgen.PromotionRedemption, error) {
	if s.existingRedeem {
		return dbgen.PromotionRedemption{}, nil
	}
	return dbgen.PromotionRedemption{}, pgx.ErrNoRows
}

func (s *stubQuerier) InsertRedemption(_ context.Context, arg dbgen.InsertRedemptionParams) error {
	s.inserted = &arg
	return nil
}

func (s *stubQuerier) IncrementPromotionRedemptions(_ context.Context, _ pgtype.UUID) error {
	s.incremented++
	return nil
}

func percentPromo(code string, pct int32) dbgen.Promotion {
	return dbgen.Promotion{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Code:        code,
		Kind:        string(KindPercentage),
		TriggerType: string(TriggerCode),
		Targeting:   string(TargetAll),

		DiscountPercent: pct,
		Active:          true,
	}
}

func TestPreviewResolvesShopperFromQueries(t *testing.T) {
	q := &stubQuerier{
		promo:           percentPromo("WELCOME10", 10),
		completedOrders: 3,
		lifetimeSpend:   25000,
	}
	q.promo.Targeting = string(TargetOrderCount)
	q.promo.MinOrderCount = 3

	svc := &Service{Q: q, Now: func() time.Time { return evalNow }}
	userID := uuid.New().String()
	res, err := svc.Preview(context.Background(), "welcome10", &userID, []Item{{ProductSlug: "lavender-8oz", Qty: 1, UnitPriceCents: 5000}})
	require.NoError(t, err)
	require.True(t, res.Eligible)
	require.Equal(t, int64(500), res.DiscountCents)
	require.Equal(t, "WELCOME10", res.Code)
}

func TestPreviewUnknownCode(t *testing.T) {
	q := &stubQuerier{promoErr: pgx.ErrNoRows}
	svc := &Service{Q: q}
	_, err := svc.Preview(context.Background(), "NOPE", nil, []Item{{Qty: 1, UnitPriceCents: 100}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewReportsReasonNotError(t *testing.T) {
	q := &stubQuerier{promo: percentPromo("OLD", 10)}
	q.promo.Active = false
	svc := &Service{Q: q, Now: func() time.Time { return evalNow }}
	res, err := svc.Preview(context.Background(), "OLD", nil, []Item{{Qty: 1, UnitPriceCents: 100}})
	require.NoError(t, err)
	require.False(t, res.Eligible)
	require.Equal(t, string(ReasonInactive), res.Reason)
}

func TestBestAutomaticPicksLargestDiscount(t *testing.T) {
	small := percentPromo("AUTO5", 5)
	small.TriggerType = string(TriggerAutomatic)
	big := percentPromo("AUTO20", 20)
	big.TriggerType = string(TriggerAutomatic)
	q := &stubQuerier{automatic: []dbgen.Promotion{small, big}}

	svc := &Service{Q: q, Now: func() time.Time { return evalNow }}
	res, err := svc.BestAutomatic(context.Background(), nil, []Item{{ProductSlug: "cedar-8oz", Qty: 1, UnitPriceCents: 1000}})
	require.NoError(t, err)
	require.Equal(t, "AUTO20", res.Code)
	require.Equal(t, int64(200), res.DiscountCents)
}

func TestSettleCommitsOnce(t *testing.T) {
	q := &stubQuerier{promo: percentPromo("SPRING", 10)}
	svc := &Service{Q: q}
	orderID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	userID := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	require.NoError(t, svc.Settle(context.Background(), "SPRING", orderID, userID, 500))
	require.NotNil(t, q.inserted)
	require.Equal(t, int64(500), q.inserted.DiscountCents)
	require.Equal(t, 1, q.incremented)
}

func TestSettleIsIdempotentPerOrder(t *testing.T) {
	q := &stubQuerier{promo: percentPromo("SPRING", 10), existingRedeem: true}
	svc := &Service{Q: q}
	orderID := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	require.NoError(t, svc.Settle(context.Background(), "SPRING", orderID, pgtype.UUID{}, 500))
	require.Nil(t, q.inserted)
	require.Equal(t, 0, q.incremented)
}

func TestSettleIgnoresUnknownCode(t *testing.T) {
	q := &stubQuerier{promoErr: pgx.ErrNoRows}
	svc := &Service{Q: q}
	require.NoError(t, svc.Settle(context.Background(), "GONE", pgtype.UUID{Bytes: uuid.New(), Valid: true}, pgtype.UUID{}, 100))
}

func TestRuleFromModelNullables(t *testing.T) {
	m := percentPromo("X10", 10)
	m.MaxRedemptions = pgtype.Int4{Int32: 100, Valid: true}
	m.StartsAt = pgtype.Timestamptz{Time: evalNow, Valid: true}
	uid := uuid.New()
	m.TargetUserIds = []pgtype.UUID{{Bytes: uid, Valid: true}, {}}

	rule := RuleFromModel(m)
	require.NotNil(t, rule.MaxRedemptions)
	require.EqualValues(t, 100, *rule.MaxRedemptions)
	require.Nil(t, rule.MaxPerCustomer)
	require.NotNil(t, rule.StartsAt)
	require.Equal(t, []uuid.UUID{uid}, rule.TargetUserIDs)
}
