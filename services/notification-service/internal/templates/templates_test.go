package templates

import (
	"strings"
	"testing"
)

func TestRenderBooked(t *testing.T) {
	subject, body, err := Render("booking.appointment.booked.v1", AppointmentData{
		VisitorName: "Jamie",
		Date:        "2026-06-10",
		SlotTime:    "09:30",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(subject, "2026-06-10") || !strings.Contains(subject, "09:30") {
		t.Fatalf("subject missing slot details: %q", subject)
	}
	if !strings.Contains(body, "Jamie") || !strings.Contains(body, "awaiting confirmation") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestRenderAllEventTypes(t *testing.T) {
	data := AppointmentData{VisitorName: "Jamie", Date: "2026-06-10", SlotTime: "09:30"}
	for _, et := range []string{
		"booking.appointment.booked.v1",
		"booking.appointment.cancelled.v1",
		"booking.appointment.reschedule_requested.v1",
	} {
		if _, _, err := Render(et, data); err != nil {
			t.Errorf("render %s: %v", et, err)
		}
	}
	if _, _, err := Render("billing.plan.activated.v1", data); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	_, body, err := Render("booking.appointment.booked.v1", AppointmentData{
		VisitorName: "<script>alert(1)</script>",
		Date:        "2026-06-10",
		SlotTime:    "09:30",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("visitor name not escaped")
	}
}

func TestRenderDefaultsVisitorName(t *testing.T) {
	_, body, err := Render("booking.appointment.cancelled.v1", AppointmentData{
		Date:     "2026-06-10",
		SlotTime: "09:30",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(body, "Hi there,") {
		t.Fatalf("expected fallback greeting, got %q", body)
	}
}
