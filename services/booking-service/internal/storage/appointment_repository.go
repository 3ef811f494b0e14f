package storage

import (
	"context"
	"errors"
	"time"

	"github.com/getatme/platform/libs/db"
	"github.com/getatme/platform/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts a pending appointment. The partial unique index on
// (owner_id, date, slot_time) over non-cancelled rows turns a lost
// race into a unique violation, which callers surface as a conflict.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(owner_id, visitor_name, visitor_email, visitor_phone, message, date, slot_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, appt.OwnerID, appt.VisitorName, appt.VisitorEmail, appt.VisitorPhone, appt.Message,
		appt.Date, appt.SlotTime, appt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, ownerID, appointmentID string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, owner_id, visitor_name, visitor_email, COALESCE(visitor_phone, ''), COALESCE(message, ''),
			to_char(date, 'YYYY-MM-DD'), slot_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, appointmentID, ownerID)
	return scanAppointment(row)
}

func (r *AppointmentRepository) Get(ctx context.Context, ownerID, appointmentID string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, visitor_name, visitor_email, COALESCE(visitor_phone, ''), COALESCE(message, ''),
			to_char(date, 'YYYY-MM-DD'), slot_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE id = $1 AND owner_id = $2
	`, appointmentID, ownerID)
	return scanAppointment(row)
}

// BookedTimes returns the occupied HH:MM slots for one date. Cancelled
// appointments never block a slot.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, ownerID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_time
		FROM appointments
		WHERE owner_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY slot_time ASC
	`, ownerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// BookedTimesRange returns occupied slots keyed by date over an
// inclusive date range, for the multi-day availability view.
func (r *AppointmentRepository) BookedTimesRange(ctx context.Context, ownerID, from, to string) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), slot_time
		FROM appointments
		WHERE owner_id = $1 AND date >= $2 AND date <= $3 AND status <> 'cancelled'
		ORDER BY date ASC, slot_time ASC
	`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var date, slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, err
		}
		booked[date] = append(booked[date], slot)
	}
	return booked, rows.Err()
}

func (r *AppointmentRepository) ListRange(ctx context.Context, ownerID, from, to string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, visitor_name, visitor_email, COALESCE(visitor_phone, ''), COALESCE(message, ''),
			to_char(date, 'YYYY-MM-DD'), slot_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE owner_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, slot_time ASC
	`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, ownerID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING cancelled_at
	`, appointmentID, ownerID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *AppointmentRepository) Confirm(ctx context.Context, tx pgx.Tx, ownerID, appointmentID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'confirmed'
		WHERE id = $1 AND owner_id = $2 AND status = 'pending'
	`, appointmentID, ownerID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.OwnerID,
		&appt.VisitorName,
		&appt.VisitorEmail,
		&appt.VisitorPhone,
		&appt.Message,
		&appt.Date,
		&appt.SlotTime,
		&appt.Status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// IsConflict reports a unique violation from the partial index guarding
// one active appointment per (owner, date, slot).
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
