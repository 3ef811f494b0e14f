package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/getatme/platform/services/booking-service/internal/availability"
)

func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	stored, found, err := h.availRepo.Get(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	// Reads fill defaults for display but persist nothing.
	var storedPtr *availability.Config
	if found {
		storedPtr = &stored
	}
	writeJSON(w, http.StatusOK, availability.Resolve(storedPtr, availability.Patch{}))
}

func (h *BookingHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var patch availability.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if patch.StartTime != nil && !availability.ValidateClock(*patch.StartTime) {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	if patch.EndTime != nil && !availability.ValidateClock(*patch.EndTime) {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}

	stored, found, err := h.availRepo.Get(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	var storedPtr *availability.Config
	if found {
		storedPtr = &stored
	}

	resolved := availability.Resolve(storedPtr, patch)
	if resolved.StartTime >= resolved.EndTime {
		http.Error(w, "start_time must be before end_time", http.StatusBadRequest)
		return
	}

	if err := h.availRepo.Upsert(r.Context(), owner, resolved); err != nil {
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}
