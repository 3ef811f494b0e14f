package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"
	"time"
)

func TestHandlePattern(t *testing.T) {
	valid := []string{"abc", "my_handle", "user123", "a_1", "abcdefghijklmnopqrstuvwxyz0123"}
	for _, h := range valid {
		if !handleRE.MatchString(h) {
			t.Errorf("expected %q to be a valid handle", h)
		}
	}
	invalid := []string{"", "ab", "AB-cd", "UPPER", "has space", "too_long_handle_way_over_thirty_chars", "dash-ed", "dot.ted"}
	for _, h := range invalid {
		if handleRE.MatchString(h) {
			t.Errorf("expected %q to be rejected", h)
		}
	}
}

func signWebhook(secret, id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"user.created","data":{"id":"u1"}}`)

	sig := signWebhook(secret, "msg_1", ts, body)
	if err := verifyWebhookSignature(secret, "msg_1", ts, sig, body, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := verifyWebhookSignature(secret, "msg_1", ts, sig, []byte(`{}`), now); err == nil {
		t.Fatal("tampered body accepted")
	}
	if err := verifyWebhookSignature("wrong", "msg_1", ts, sig, body, now); err == nil {
		t.Fatal("wrong secret accepted")
	}
	if err := verifyWebhookSignature(secret, "msg_2", ts, sig, body, now); err == nil {
		t.Fatal("wrong message id accepted")
	}
}

func TestVerifyWebhookSignature_Tolerance(t *testing.T) {
	secret := "whsec_test"
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	body := []byte(`{}`)

	old := now.Add(-10 * time.Minute)
	ts := strconv.FormatInt(old.Unix(), 10)
	sig := signWebhook(secret, "msg_1", ts, body)
	if err := verifyWebhookSignature(secret, "msg_1", ts, sig, body, now); err == nil {
		t.Fatal("stale timestamp accepted")
	}

	future := now.Add(10 * time.Minute)
	ts = strconv.FormatInt(future.Unix(), 10)
	sig = signWebhook(secret, "msg_1", ts, body)
	if err := verifyWebhookSignature(secret, "msg_1", ts, sig, body, now); err == nil {
		t.Fatal("future timestamp accepted")
	}
}

func TestVerifyWebhookSignature_MultipleEntries(t *testing.T) {
	secret := "whsec_test"
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{}`)

	good := signWebhook(secret, "msg_1", ts, body)
	header := "v1,Zm9vYmFy " + good
	if err := verifyWebhookSignature(secret, "msg_1", ts, header, body, now); err != nil {
		t.Fatalf("valid entry in multi-signature header rejected: %v", err)
	}

	if err := verifyWebhookSignature(secret, "msg_1", ts, "v1,Zm9vYmFy", body, now); err == nil {
		t.Fatal("header with only bad entries accepted")
	}
}

func TestValidLinkURL(t *testing.T) {
	if !validLinkURL("https://example.com") || !validLinkURL("http://example.com") {
		t.Fatal("expected http(s) urls to be valid")
	}
	for _, u := range []string{"ftp://example.com", "javascript:alert(1)", "example.com", ""} {
		if validLinkURL(u) {
			t.Errorf("expected %q to be rejected", u)
		}
	}
}
