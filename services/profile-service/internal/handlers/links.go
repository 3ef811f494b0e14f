package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

type linkItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

func toLinkItems(links []storage.Link) []linkItem {
	items := make([]linkItem, 0, len(links))
	for _, l := range links {
		items = append(items, linkItem{
			ID:        l.ID,
			Title:     l.Title,
			URL:       l.URL,
			Position:  l.Position,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items
}

func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listLinks(w, r)
	case http.MethodPost:
		h.createLink(w, r)
	case http.MethodPut:
		h.updateLink(w, r)
	case http.MethodDelete:
		h.deleteLink(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listLinks(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}
	links, err := h.repo.ListLinks(r.Context(), owner)
	if err != nil {
		http.Error(w, "failed to list links", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toLinkItems(links))
}

type linkRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.Title == "" || req.URL == "" {
		http.Error(w, "title and url required", http.StatusBadRequest)
		return
	}
	if len(req.Title) > maxLinkTitleLen {
		http.Error(w, "title too long", http.StatusBadRequest)
		return
	}
	if !validLinkURL(req.URL) {
		http.Error(w, "url must be http or https", http.StatusBadRequest)
		return
	}

	// Plan cap: the entitlements cache decides how many links the owner
	// may hold. Owners the billing pipeline hasn't mentioned are free
	// tier.
	maxLinks := 5
	if ent, ok, err := h.repo.GetEntitlements(r.Context(), owner); err != nil {
		http.Error(w, "failed to load entitlements", http.StatusInternalServerError)
		return
	} else if ok {
		maxLinks = ent.MaxLinks
	}
	if maxLinks > 0 {
		count, err := h.repo.CountLinks(r.Context(), owner)
		if err != nil {
			http.Error(w, "failed to count links", http.StatusInternalServerError)
			return
		}
		if count >= maxLinks {
			http.Error(w, "link limit reached for current plan", http.StatusPaymentRequired)
			return
		}
	}

	id, err := h.repo.CreateLink(r.Context(), storage.Link{
		OwnerID: owner,
		Title:   req.Title,
		URL:     req.URL,
	})
	if err != nil {
		http.Error(w, "failed to create link", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) updateLink(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.ID == "" || req.Title == "" || req.URL == "" {
		http.Error(w, "id, title and url required", http.StatusBadRequest)
		return
	}
	if len(req.Title) > maxLinkTitleLen {
		http.Error(w, "title too long", http.StatusBadRequest)
		return
	}
	if !validLinkURL(req.URL) {
		http.Error(w, "url must be http or https", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateLink(r.Context(), storage.Link{
		ID:      req.ID,
		OwnerID: owner,
		Title:   req.Title,
		URL:     req.URL,
	}); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "link not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update link", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": req.ID})
}

func (h *Handler) deleteLink(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.DeleteLink(r.Context(), owner, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "link not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete link", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) ReorderLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.ReorderLinks(ctx, tx, owner, req.IDs); err != nil {
		http.Error(w, "failed to reorder links", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	links, err := h.repo.ListLinks(ctx, owner)
	if err != nil {
		http.Error(w, "failed to list links", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toLinkItems(links))
}
