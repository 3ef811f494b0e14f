package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

type postItem struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func toPostItems(posts []storage.Post) []postItem {
	items := make([]postItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, postItem{
			ID:        p.ID,
			Body:      p.Body,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items
}

func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPosts(w, r)
	case http.MethodPost:
		h.createPost(w, r)
	case http.MethodDelete:
		h.deletePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}
	posts, err := h.repo.ListPosts(r.Context(), owner, 20)
	if err != nil {
		http.Error(w, "failed to list posts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toPostItems(posts))
}

type createPostRequest struct {
	Body string `json:"body"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		http.Error(w, "owner id required", http.StatusBadRequest)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		http.Error(w, "body required", http.StatusBadRequest)
		return
	}
	if len(body) > maxPostLen {
		http.Error(w, "body too long", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreatePost(r.Context(), storage.Post{OwnerID: owner, Body: body})
	if err != nil {
		http.Error(w, "failed to create post", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.DeletePost(r.Context(), owner, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete post", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
