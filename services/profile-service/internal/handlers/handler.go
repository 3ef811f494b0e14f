package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

type Handler struct {
	repo   *storage.Repository
	logger *slog.Logger

	identityWebhookSecret string
}

func New(repo *storage.Repository, logger *slog.Logger, identityWebhookSecret string) *Handler {
	return &Handler{
		repo:                  repo,
		logger:                logger,
		identityWebhookSecret: strings.TrimSpace(identityWebhookSecret),
	}
}

var handleRE = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// validThemes is the fixed set the page renderer knows how to draw.
var validThemes = map[string]struct{}{
	"default": {},
	"dark":    {},
	"ocean":   {},
	"sunset":  {},
	"forest":  {},
	"mono":    {},
}

const (
	maxDisplayNameLen = 100
	maxBioLen         = 500
	maxPostLen        = 2000
	maxLinkTitleLen   = 120
)

func ownerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Owner-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validLinkURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
