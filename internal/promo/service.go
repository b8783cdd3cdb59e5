package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/obs"
)

// ErrNotFound is returned when a promotion code does not exist.
var ErrNotFound = errors.New("promotion not found")

// Querier captures the database methods required by the promotion service.
type Querier interface {
	GetPromotionByCode(ctx context.Context, code string) (dbgen.Promotion, error)
	GetPromotionByCodeForUpdate(ctx context.Context, code string) (dbgen.Promotion, error)
	ListActiveAutomaticPromotions(ctx context.Context) ([]dbgen.Promotion, error)
	CountRedemptionsByUser(ctx context.Context, arg dbgen.CountRedemptionsByUserParams) (int64, error)
	CountCompletedOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	SumLifetimeSpendByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	GetRedemptionByOrder(ctx context.Context, arg dbgen.GetRedemptionByOrderParams) (dbgen.PromotionRedemption, error)
	InsertRedemption(ctx context.Context, arg dbgen.InsertRedemptionParams) error
	IncrementPromotionRedemptions(ctx context.Context, id pgtype.UUID) error
}

// PreviewResult is the API payload for a dry-run evaluation.
type PreviewResult struct {
	Code          string `json:"code"`
	Eligible      bool   `json:"eligible"`
	DiscountCents int64  `json:"discountCents"`
	Reason        string `json:"reason,omitempty"`
}

// Service evaluates promotions against live customer data and commits
// redemptions at payment time.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Preview evaluates the coded promotion against the cart without mutating
// state. Ineligibility is a result, not an error.
func (s *Service) Preview(ctx context.Context, code string, userID *string, cart []Item) (PreviewResult, error) {
	if s == nil || s.Q == nil {
		return PreviewResult{}, errors.New("promo service not configured")
	}
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return PreviewResult{}, ErrNotFound
	}
	model, err := s.Q.GetPromotionByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PreviewResult{}, ErrNotFound
		}
		return PreviewResult{}, err
	}
	rule := RuleFromModel(model)
	shopper, err := s.resolveShopper(ctx, model.ID, userID)
	if err != nil {
		return PreviewResult{}, err
	}
	res := Evaluate(rule, cart, shopper, s.now())
	return PreviewResult{
		Code:          rule.Code,
		Eligible:      res.Eligible,
		DiscountCents: res.DiscountCents,
		Reason:        string(res.Reason),
	}, nil
}

// BestAutomatic evaluates every active automatic promotion and returns the
// one granting the largest discount, or a zero result when none applies.
func (s *Service) BestAutomatic(ctx context.Context, userID *string, cart []Item) (PreviewResult, error) {
	if s == nil || s.Q == nil {
		return PreviewResult{}, errors.New("promo service not configured")
	}
	promos, err := s.Q.ListActiveAutomaticPromotions(ctx)
	if err != nil {
		return PreviewResult{}, err
	}
	var best PreviewResult
	for _, model := range promos {
		shopper, err := s.resolveShopper(ctx, model.ID, userID)
		if err != nil {
			return PreviewResult{}, err
		}
		res := Evaluate(RuleFromModel(model), cart, shopper, s.now())
		if res.Eligible && res.DiscountCents > best.DiscountCents {
			best = PreviewResult{Code: model.Code, Eligible: true, DiscountCents: res.DiscountCents}
		}
	}
	return best, nil
}

// Settle commits a redemption after payment confirmation. The unique
// (promotion_id, order_id) row makes retries no-ops, so webhook redelivery
// cannot double-count.
func (s *Service) Settle(ctx context.Context, code string, orderID, userID pgtype.UUID, discountCents int64) error {
	if s == nil || s.Q == nil {
		return errors.New("promo service not configured")
	}
	if strings.TrimSpace(code) == "" || !orderID.Valid {
		return nil
	}
	if discountCents < 0 {
		discountCents = 0
	}
	model, err := s.Q.GetPromotionByCodeForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	_, err = s.Q.GetRedemptionByOrder(ctx, dbgen.GetRedemptionByOrderParams{PromotionID: model.ID, OrderID: orderID})
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := s.Q.InsertRedemption(ctx, dbgen.InsertRedemptionParams{
		PromotionID:   model.ID,
		OrderID:       orderID,
		UserID:        userID,
		DiscountCents: discountCents,
	}); err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	if err := s.Q.IncrementPromotionRedemptions(ctx, model.ID); err != nil {
		return fmt.Errorf("increment redemptions: %w", err)
	}
	if obs.PromoRedemptionsTotal != nil {
		obs.PromoRedemptionsTotal.WithLabelValues(model.Code).Inc()
	}
	return nil
}

func (s *Service) resolveShopper(ctx context.Context, promotionID pgtype.UUID, userID *string) (Shopper, error) {
	var shopper Shopper
	if userID == nil || strings.TrimSpace(*userID) == "" {
		return shopper, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*userID))
	if err != nil {
		return shopper, fmt.Errorf("invalid user id: %w", err)
	}
	shopper.ID = parsed
	uid := pgtype.UUID{Bytes: parsed, Valid: true}

	orders, err := s.Q.CountCompletedOrdersByUser(ctx, uid)
	if err != nil {
		return shopper, err
	}
	shopper.CompletedOrders = int32(orders)

	spend, err := s.Q.SumLifetimeSpendByUser(ctx, uid)
	if err != nil {
		return shopper, err
	}
	shopper.LifetimeSpendCents = spend

	redemptions, err := s.Q.CountRedemptionsByUser(ctx, dbgen.CountRedemptionsByUserParams{PromotionID: promotionID, UserID: uid})
	if err != nil {
		return shopper, err
	}
	shopper.PriorRedemptions = int32(redemptions)
	return shopper, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RuleFromModel converts a persisted promotion into an evaluator rule.
func RuleFromModel(p dbgen.Promotion) Rule {
	rule := Rule{
		Code:                  p.Code,
		Name:                  p.Name,
		Kind:                  Kind(p.Kind),
		Trigger:               Trigger(p.TriggerType),
		DiscountPercent:       p.DiscountPercent,
		DiscountAmountCents:   p.DiscountAmountCents,
		MinQuantity:           p.MinQuantity,
		ApplyToQuantity:       p.ApplyToQuantity,
		MinOrderCents:         p.MinOrderCents,
		CurrentRedemptions:    p.CurrentRedemptions,
		Targeting:             Targeting(p.Targeting),
		MinOrderCount:         p.MinOrderCount,
		MinLifetimeSpendCents: p.MinLifetimeSpendCents,
		ProductSlugs:          p.ProductSlugs,
		Active:                p.Active,
	}
	if p.MaxRedemptions.Valid {
		v := p.MaxRedemptions.Int32
		rule.MaxRedemptions = &v
	}
	if p.MaxPerCustomer.Valid {
		v := p.MaxPerCustomer.Int32
		rule.MaxPerCustomer = &v
	}
	if p.StartsAt.Valid {
		t := p.StartsAt.Time
		rule.StartsAt = &t
	}
	if p.ExpiresAt.Valid {
		t := p.ExpiresAt.Time
		rule.ExpiresAt = &t
	}
	rule.TargetUserIDs = toUUIDSlice(p.TargetUserIds)
	return rule
}

func toUUIDSlice(values []pgtype.UUID) []uuid.UUID {
	if len(values) == 0 {
		return nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if !v.Valid {
			continue
		}
		out = append(out, uuid.UUID(v.Bytes))
	}
	return out
}
