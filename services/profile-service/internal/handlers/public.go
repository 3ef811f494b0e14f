package handlers

import (
	"net/http"
	"strings"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

type publicPageResponse struct {
	Handle         string     `json:"handle"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	Theme          string     `json:"theme"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	BookingEnabled bool       `json:"booking_enabled"`
	VerifiedBadge  bool       `json:"verified_badge"`
	Links          []linkItem `json:"links"`
	Posts          []postItem `json:"posts"`
}

// PublicPage renders the visitor-facing page for a handle: profile,
// ordered links and latest posts. Disabled owners look like missing
// pages.
func (h *Handler) PublicPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handle := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("handle")))
	if !handleRE.MatchString(handle) {
		http.Error(w, "invalid handle", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	owner, profile, err := h.repo.GetOwnerByHandle(ctx, handle)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}
	if owner.Status != "active" {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	links, err := h.repo.ListLinks(ctx, owner.ID)
	if err != nil {
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}
	posts, err := h.repo.ListPosts(ctx, owner.ID, 20)
	if err != nil {
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}

	resp := publicPageResponse{
		Handle:      profile.Handle,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		Theme:       profile.Theme,
		AvatarURL:   profile.AvatarURL,
		Links:       toLinkItems(links),
		Posts:       toPostItems(posts),
	}
	if ent, ok, err := h.repo.GetEntitlements(ctx, owner.ID); err != nil {
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	} else if ok {
		resp.BookingEnabled = ent.BookingEnabled
		resp.VerifiedBadge = ent.Tier == "creator"
	}

	writeJSON(w, http.StatusOK, resp)
}
