package storage

import (
	"context"
	"errors"

	"github.com/getatme/platform/libs/db"
	"github.com/getatme/platform/services/booking-service/internal/availability"
	"github.com/jackc/pgx/v5"
)

type AvailabilityRepository struct {
	pool *db.Pool
}

func NewAvailabilityRepository(pool *db.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// Get returns the stored config, if any. Reads never create the row;
// default-filling happens in the availability package.
func (r *AvailabilityRepository) Get(ctx context.Context, ownerID string) (availability.Config, bool, error) {
	var cfg availability.Config
	err := r.pool.QueryRow(ctx, `
		SELECT enabled, start_time, end_time,
			monday, tuesday, wednesday, thursday, friday, saturday, sunday
		FROM availability_configs
		WHERE owner_id = $1
	`, ownerID).Scan(
		&cfg.Enabled,
		&cfg.StartTime,
		&cfg.EndTime,
		&cfg.Weekdays.Monday,
		&cfg.Weekdays.Tuesday,
		&cfg.Weekdays.Wednesday,
		&cfg.Weekdays.Thursday,
		&cfg.Weekdays.Friday,
		&cfg.Weekdays.Saturday,
		&cfg.Weekdays.Sunday,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return availability.Config{}, false, nil
		}
		return availability.Config{}, false, err
	}
	return cfg, true, nil
}

// Upsert persists a fully resolved config. Only the owner writes their
// own row, so last-write-wins is fine.
func (r *AvailabilityRepository) Upsert(ctx context.Context, ownerID string, cfg availability.Config) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_configs
			(owner_id, enabled, start_time, end_time,
			 monday, tuesday, wednesday, thursday, friday, saturday, sunday)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			monday = EXCLUDED.monday,
			tuesday = EXCLUDED.tuesday,
			wednesday = EXCLUDED.wednesday,
			thursday = EXCLUDED.thursday,
			friday = EXCLUDED.friday,
			saturday = EXCLUDED.saturday,
			sunday = EXCLUDED.sunday,
			updated_at = now()
	`, ownerID, cfg.Enabled, cfg.StartTime, cfg.EndTime,
		cfg.Weekdays.Monday, cfg.Weekdays.Tuesday, cfg.Weekdays.Wednesday, cfg.Weekdays.Thursday,
		cfg.Weekdays.Friday, cfg.Weekdays.Saturday, cfg.Weekdays.Sunday)
	return err
}
