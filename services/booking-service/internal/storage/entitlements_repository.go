package storage

import (
	"context"
	"errors"

	"github.com/getatme/platform/libs/db"
	"github.com/jackc/pgx/v5"
)

// OwnerEntitlements is the local cache of the billing-service plan
// flags, kept fresh by the plan event consumer.
type OwnerEntitlements struct {
	OwnerID        string
	Tier           string
	BookingEnabled bool
	MaxLinks       int
}

type EntitlementsRepository struct {
	pool *db.Pool
}

func NewEntitlementsRepository(pool *db.Pool) *EntitlementsRepository {
	return &EntitlementsRepository{pool: pool}
}

func (r *EntitlementsRepository) Get(ctx context.Context, ownerID string) (OwnerEntitlements, bool, error) {
	var ent OwnerEntitlements
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id, tier, booking_enabled, max_links
		FROM owner_entitlements
		WHERE owner_id = $1
	`, ownerID).Scan(&ent.OwnerID, &ent.Tier, &ent.BookingEnabled, &ent.MaxLinks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OwnerEntitlements{}, false, nil
		}
		return OwnerEntitlements{}, false, err
	}
	return ent, true, nil
}

func (r *EntitlementsRepository) Upsert(ctx context.Context, tx pgx.Tx, ent OwnerEntitlements) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO owner_entitlements (owner_id, tier, booking_enabled, max_links)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			booking_enabled = EXCLUDED.booking_enabled,
			max_links = EXCLUDED.max_links,
			updated_at = now()
	`, ent.OwnerID, ent.Tier, ent.BookingEnabled, ent.MaxLinks)
	return err
}
