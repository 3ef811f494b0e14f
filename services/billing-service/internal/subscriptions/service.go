package subscriptions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getatme/platform/services/billing-service/internal/outbox"
	"github.com/getatme/platform/services/billing-service/internal/plans"
	"github.com/getatme/platform/services/billing-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

// Service owns subscription state transitions and their side effects
// (plan events through the outbox). Webhook and admin flows both come
// through here so the emit-on-change rule lives in one place.
type Service struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo}
}

func (s *Service) ApplyActivated(ctx context.Context, tx pgx.Tx, ownerID, tier string, activatedAt time.Time, provider, stripeCustomerID, stripeSubscriptionID string, periodStart, periodEnd *time.Time) error {
	existing, ok, err := s.repo.GetSubscriptionForUpdate(ctx, tx, ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertSubscription(ctx, tx, storage.Subscription{
		OwnerID:              ownerID,
		Tier:                 tier,
		Status:               "active",
		Provider:             provider,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}); err != nil {
		return err
	}

	// Emit only when the effective entitlement changes; provider-id
	// updates alone should not fan out to the other services.
	if ok && existing.Status == "active" && existing.Tier == tier {
		return nil
	}

	ent := plans.ForTier(tier)
	payload, err := json.Marshal(map[string]any{
		"owner_id":          ownerID,
		"tier":              ent.Tier,
		"booking_enabled":   ent.BookingEnabled,
		"max_links":         ent.MaxLinks,
		"messaging_enabled": ent.MessagingEnabled,
		"verified_badge":    ent.VerifiedBadge,
		"activated_at":      activatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "subscription",
		AggregateID:   ownerID,
		EventType:     "billing.plan.activated.v1",
		Payload:       payload,
	})
}

func (s *Service) ApplyCanceled(ctx context.Context, tx pgx.Tx, ownerID string, canceledAt time.Time, provider, stripeCustomerID, stripeSubscriptionID string, periodStart, periodEnd *time.Time) error {
	existing, ok, err := s.repo.GetSubscriptionForUpdate(ctx, tx, ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertSubscription(ctx, tx, storage.Subscription{
		OwnerID:              ownerID,
		Tier:                 "free",
		Status:               "canceled",
		Provider:             provider,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}); err != nil {
		return err
	}

	if ok && existing.Status == "canceled" && existing.Tier == "free" {
		return nil
	}

	ent := plans.ForTier("free")
	payload, err := json.Marshal(map[string]any{
		"owner_id":          ownerID,
		"tier":              ent.Tier,
		"booking_enabled":   ent.BookingEnabled,
		"max_links":         ent.MaxLinks,
		"messaging_enabled": ent.MessagingEnabled,
		"verified_badge":    ent.VerifiedBadge,
		"canceled_at":       canceledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "subscription",
		AggregateID:   ownerID,
		EventType:     "billing.plan.canceled.v1",
		Payload:       payload,
	})
}
