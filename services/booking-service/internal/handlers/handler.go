package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getatme/platform/services/booking-service/internal/outbox"
	"github.com/getatme/platform/services/booking-service/internal/storage"
)

type BookingHandler struct {
	availRepo      *storage.AvailabilityRepository
	apptRepo       *storage.AppointmentRepository
	entRepo        *storage.EntitlementsRepository
	outboxRepo     *outbox.Repository
	logger         *slog.Logger
	organizerEmail string
}

func NewBookingHandler(
	availRepo *storage.AvailabilityRepository,
	apptRepo *storage.AppointmentRepository,
	entRepo *storage.EntitlementsRepository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
	organizerEmail string,
) *BookingHandler {
	return &BookingHandler{
		availRepo:      availRepo,
		apptRepo:       apptRepo,
		entRepo:        entRepo,
		outboxRepo:     outboxRepo,
		logger:         logger,
		organizerEmail: organizerEmail,
	}
}

// ownerID reads the identity the gateway injected after verifying the
// session token. Empty means the request skipped the gateway auth path.
func ownerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Owner-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// parseDate accepts strict YYYY-MM-DD and returns the UTC midnight of
// that calendar day.
func parseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func containsSlot(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
