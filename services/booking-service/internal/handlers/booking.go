package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getatme/platform/services/booking-service/internal/availability"
	"github.com/getatme/platform/services/booking-service/internal/ical"
	"github.com/getatme/platform/services/booking-service/internal/model"
	"github.com/getatme/platform/services/booking-service/internal/outbox"
	"github.com/getatme/platform/services/booking-service/internal/storage"
)

type dayItem struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Slots   []string `json:"slots"`
}

type bookRequest struct {
	OwnerID      string `json:"owner_id"`
	VisitorName  string `json:"visitor_name"`
	VisitorEmail string `json:"visitor_email"`
	VisitorPhone string `json:"visitor_phone"`
	Message      string `json:"message"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	VisitorName   string `json:"visitor_name"`
	VisitorEmail  string `json:"visitor_email"`
	VisitorPhone  string `json:"visitor_phone,omitempty"`
	Message       string `json:"message,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type statusResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}

// Days lists the next bookable days for an owner with their free slots.
func (h *BookingHandler) Days(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if owner == "" {
		http.Error(w, "owner_id required", http.StatusBadRequest)
		return
	}
	count := 5
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 30 {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}

	cfg, ok, err := h.loadBookableConfig(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "booking not available", http.StatusNotFound)
		return
	}

	now := time.Now().UTC()
	days := availability.CandidateDays(cfg, now, count, now)
	slots := availability.GenerateSlots(cfg.StartTime, cfg.EndTime, availability.SlotInterval)

	items := make([]dayItem, 0, len(days))
	if len(days) > 0 {
		from := days[0].Format("2006-01-02")
		to := days[len(days)-1].Format("2006-01-02")
		booked, err := h.apptRepo.BookedTimesRange(r.Context(), owner, from, to)
		if err != nil {
			http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
			return
		}
		for _, day := range days {
			date := day.Format("2006-01-02")
			free := availability.FreeSlots(slots, booked[date])
			if free == nil {
				free = []string{}
			}
			items = append(items, dayItem{
				Date:    date,
				Weekday: day.Weekday().String(),
				Slots:   free,
			})
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// Slots lists the free slots for one date.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if owner == "" || dateStr == "" {
		http.Error(w, "owner_id and date required", http.StatusBadRequest)
		return
	}
	day, valid := parseDate(dateStr)
	if !valid {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	cfg, ok, err := h.loadBookableConfig(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "booking not available", http.StatusNotFound)
		return
	}

	free := []string{}
	if cfg.Weekdays.On(day.Weekday()) {
		booked, err := h.apptRepo.BookedTimes(r.Context(), owner, dateStr)
		if err != nil {
			http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
			return
		}
		slots := availability.GenerateSlots(cfg.StartTime, cfg.EndTime, availability.SlotInterval)
		if got := availability.FreeSlots(slots, booked); got != nil {
			free = got
		}
	}
	writeJSON(w, http.StatusOK, free)
}

// Book creates a pending appointment from a visitor submission.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	req.VisitorEmail = strings.TrimSpace(req.VisitorEmail)
	req.VisitorPhone = strings.TrimSpace(req.VisitorPhone)
	req.Message = strings.TrimSpace(req.Message)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	if req.OwnerID == "" || req.VisitorName == "" || req.VisitorEmail == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	day, valid := parseDate(req.Date)
	if !valid {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if !availability.ValidateClock(req.Time) {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		http.Error(w, "date is in the past", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cfg, ok, err := h.loadBookableConfig(ctx, req.OwnerID)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "booking not available", http.StatusNotFound)
		return
	}

	// Stale-client defense: the time must be one the schedule would
	// actually offer for that weekday.
	slots := availability.GenerateSlots(cfg.StartTime, cfg.EndTime, availability.SlotInterval)
	if !cfg.Weekdays.On(day.Weekday()) || !containsSlot(slots, req.Time) {
		http.Error(w, "time is outside availability", http.StatusBadRequest)
		return
	}

	booked, err := h.apptRepo.BookedTimes(ctx, req.OwnerID, req.Date)
	if err != nil {
		http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
		return
	}
	if containsSlot(booked, req.Time) {
		http.Error(w, "slot already booked", http.StatusConflict)
		return
	}

	tx, err := h.apptRepo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt := &model.Appointment{
		OwnerID:      req.OwnerID,
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		Message:      req.Message,
		Date:         req.Date,
		SlotTime:     req.Time,
		Status:       model.StatusPending,
	}
	id, err := h.apptRepo.Create(ctx, tx, appt)
	if err != nil {
		// The partial unique index closes the read-then-insert race.
		if storage.IsConflict(err) {
			http.Error(w, "slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": id,
		"owner_id":       appt.OwnerID,
		"visitor_name":   appt.VisitorName,
		"visitor_email":  appt.VisitorEmail,
		"visitor_phone":  appt.VisitorPhone,
		"message":        appt.Message,
		"date":           appt.Date,
		"time":           appt.SlotTime,
		"status":         appt.Status,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{AppointmentID: id, Status: model.StatusPending})
}

// List returns the owner's appointments over an inclusive date range.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		http.Error(w, "from and to required", http.StatusBadRequest)
		return
	}
	if _, ok := parseDate(from); !ok {
		http.Error(w, "invalid from date", http.StatusBadRequest)
		return
	}
	if _, ok := parseDate(to); !ok {
		http.Error(w, "invalid to date", http.StatusBadRequest)
		return
	}
	if from > to {
		http.Error(w, "from must not be after to", http.StatusBadRequest)
		return
	}

	appts, err := h.apptRepo.ListRange(r.Context(), owner, from, to)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := appointmentItem{
			AppointmentID: appt.ID,
			VisitorName:   appt.VisitorName,
			VisitorEmail:  appt.VisitorEmail,
			VisitorPhone:  appt.VisitorPhone,
			Message:       appt.Message,
			Date:          appt.Date,
			Time:          appt.SlotTime,
			Status:        appt.Status,
			CancelReason:  appt.CancelReason,
			CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

// Cancel moves an appointment to cancelled. Idempotent when it already
// is; the visitor notification rides the outbox event.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	h.vacateSlot(w, r, owner, req.AppointmentID, req.Reason, "booking.appointment.cancelled.v1")
}

// Reschedule vacates the slot and prompts the visitor to rebook. No
// replacement appointment is created; the rebooking happens through the
// normal public booking flow.
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	h.vacateSlot(w, r, owner, req.AppointmentID, "reschedule_requested", "booking.appointment.reschedule_requested.v1")
}

func (h *BookingHandler) vacateSlot(w http.ResponseWriter, r *http.Request, owner, appointmentID, reason, eventType string) {
	ctx := r.Context()
	tx, err := h.apptRepo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.apptRepo.GetForUpdate(ctx, tx, owner, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == model.StatusCancelled {
		if eventType == "booking.appointment.cancelled.v1" && appt.CancelledAt != nil {
			writeJSON(w, http.StatusOK, statusResponse{
				AppointmentID: appt.ID,
				Status:        model.StatusCancelled,
				CancelledAt:   appt.CancelledAt.UTC().Format(time.RFC3339),
			})
			return
		}
		http.Error(w, "appointment already cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.apptRepo.Cancel(ctx, tx, owner, appt.ID, reason)
	if err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"owner_id":       appt.OwnerID,
		"visitor_name":   appt.VisitorName,
		"visitor_email":  appt.VisitorEmail,
		"date":           appt.Date,
		"time":           appt.SlotTime,
		"reason":         reason,
		"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		AppointmentID: appt.ID,
		Status:        model.StatusCancelled,
		CancelledAt:   cancelledAt.UTC().Format(time.RFC3339),
	})
}

// Confirm moves a pending appointment to confirmed.
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.apptRepo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.apptRepo.GetForUpdate(ctx, tx, owner, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	switch appt.Status {
	case model.StatusConfirmed:
		writeJSON(w, http.StatusOK, statusResponse{AppointmentID: appt.ID, Status: model.StatusConfirmed})
		return
	case model.StatusCancelled:
		http.Error(w, "appointment cannot be confirmed", http.StatusConflict)
		return
	}

	if err := h.apptRepo.Confirm(ctx, tx, owner, appt.ID); err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{AppointmentID: appt.ID, Status: model.StatusConfirmed})
}

// Calendar exports one appointment as an .ics attachment.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	appt, err := h.apptRepo.Get(r.Context(), owner, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", appt.Date+" "+appt.SlotTime, time.UTC)
	if err != nil {
		http.Error(w, "failed to build calendar event", http.StatusInternalServerError)
		return
	}

	ics := ical.Event{
		UID:            appt.ID + "@getat.me",
		Summary:        "Appointment with " + appt.VisitorName,
		Description:    appt.Message,
		Start:          start,
		Duration:       availability.SlotInterval,
		OrganizerEmail: h.organizerEmail,
		AttendeeName:   appt.VisitorName,
		AttendeeEmail:  appt.VisitorEmail,
	}.Render()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointment-`+appt.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

// loadBookableConfig resolves the owner's schedule and reports whether
// visitors may book. The billing entitlements cache wins when present;
// an owner the billing pipeline has never mentioned falls back to the
// schedule's own enabled flag.
func (h *BookingHandler) loadBookableConfig(ctx context.Context, owner string) (availability.Config, bool, error) {
	stored, found, err := h.availRepo.Get(ctx, owner)
	if err != nil {
		return availability.Config{}, false, err
	}
	var storedPtr *availability.Config
	if found {
		storedPtr = &stored
	}
	cfg := availability.Resolve(storedPtr, availability.Patch{})
	if !cfg.Enabled {
		return availability.Config{}, false, nil
	}

	ent, ok, err := h.entRepo.Get(ctx, owner)
	if err != nil {
		return availability.Config{}, false, err
	}
	if ok && !ent.BookingEnabled {
		return availability.Config{}, false, nil
	}
	return cfg, true, nil
}
