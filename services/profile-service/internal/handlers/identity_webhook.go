package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getatme/platform/services/profile-service/internal/storage"
)

const webhookTolerance = 5 * time.Minute

var errBadSignature = errors.New("bad webhook signature")

// verifyWebhookSignature checks the svix-style signature scheme used by
// the identity provider: HMAC-SHA256 over "id.timestamp.body", sent as
// a space-separated list of "v1,<base64>" entries.
func verifyWebhookSignature(secret, id, timestamp, signatureHeader string, body []byte, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errBadSignature
	}
	delta := now.Sub(time.Unix(ts, 0))
	if delta > webhookTolerance || delta < -webhookTolerance {
		return errBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, part := range strings.Fields(signatureHeader) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != "v1" {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return errBadSignature
}

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"data"`
}

// IdentityWebhook ingests user lifecycle events from the identity
// provider. The signature is the authentication on this endpoint.
func (h *Handler) IdentityWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.identityWebhookSecret == "" {
		http.Error(w, "webhook not configured", http.StatusNotImplemented)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	msgID := r.Header.Get("webhook-id")
	msgTS := r.Header.Get("webhook-timestamp")
	msgSig := r.Header.Get("webhook-signature")
	if msgID == "" || msgTS == "" || msgSig == "" {
		http.Error(w, "missing webhook headers", http.StatusBadRequest)
		return
	}
	if err := verifyWebhookSignature(h.identityWebhookSecret, msgID, msgTS, msgSig, body, time.Now()); err != nil {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var evt identityEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if evt.Data.ID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.InsertProviderEvent(ctx, tx, storage.ProviderEvent{
		Provider:        "identity",
		ProviderEventID: msgID,
		EventType:       evt.Type,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			if err := tx.Commit(ctx); err != nil {
				http.Error(w, "failed to commit", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}

	switch evt.Type {
	case "user.created", "user.updated":
		if err := h.repo.UpsertOwner(ctx, tx, evt.Data.ID, evt.Data.Email); err != nil {
			http.Error(w, "failed to upsert owner", http.StatusInternalServerError)
			return
		}
	case "user.deleted":
		if err := h.repo.DisableOwner(ctx, tx, evt.Data.ID); err != nil {
			http.Error(w, "failed to disable owner", http.StatusInternalServerError)
			return
		}
	default:
		h.logger.Info("ignoring identity event", "event_type", evt.Type)
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
