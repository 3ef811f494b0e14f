package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID           string
	OwnerID      string
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	Message      string
	Date         string // YYYY-MM-DD
	SlotTime     string // HH:MM
	Status       string
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
}
