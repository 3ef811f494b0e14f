package storage

import (
	"context"
	"encoding/json"

	"github.com/getatme/platform/libs/db"
)

type Notification struct {
	AppointmentID string
	OwnerID       string
	EventType     string
	Recipient     string
	Payload       map[string]any
	Status        string // sent | failed
	FailureReason string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, owner_id, event_type, recipient, payload, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.AppointmentID, n.OwnerID, n.EventType, n.Recipient, payload, n.Status, nullIfEmpty(n.FailureReason))
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
