package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

type profileResponse struct {
	OwnerID     string `json:"owner_id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Theme       string `json:"theme"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

func toProfileResponse(p storage.Profile) profileResponse {
	return profileResponse{
		OwnerID:     p.OwnerID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Theme:       p.Theme,
		AvatarURL:   p.AvatarURL,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}
	p, err := h.repo.GetOrCreateProfile(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Theme       *string `json:"theme"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetOrCreateProfile(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if len(name) > maxDisplayNameLen {
			http.Error(w, "display_name too long", http.StatusBadRequest)
			return
		}
		p.DisplayName = name
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if len(bio) > maxBioLen {
			http.Error(w, "bio too long", http.StatusBadRequest)
			return
		}
		p.Bio = bio
	}
	if req.Theme != nil {
		theme := strings.TrimSpace(strings.ToLower(*req.Theme))
		if _, ok := validThemes[theme]; !ok {
			http.Error(w, "unknown theme", http.StatusBadRequest)
			return
		}
		p.Theme = theme
	}
	if req.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	if err := h.repo.UpdateProfile(r.Context(), p); err != nil {
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

type claimHandleRequest struct {
	Handle string `json:"handle"`
}

// ClaimHandle assigns a unique public handle to the owner.
func (h *Handler) ClaimHandle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req claimHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	handle := strings.TrimSpace(strings.ToLower(req.Handle))
	if !handleRE.MatchString(handle) {
		http.Error(w, "invalid handle", http.StatusBadRequest)
		return
	}

	if _, err := h.repo.GetOrCreateProfile(r.Context(), owner); err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if err := h.repo.ClaimHandle(r.Context(), owner, handle); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "handle already taken", http.StatusConflict)
			return
		}
		http.Error(w, "failed to claim handle", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"handle": handle})
}
