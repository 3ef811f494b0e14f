package ical

import (
	"strings"
	"testing"
	"time"
)

func TestRender_Structure(t *testing.T) {
	start := time.Date(2026, 6, 10, 9, 30, 0, 0, time.UTC)
	stamp := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{
		UID:            "appt-1@getat.me",
		Summary:        "Appointment with Devon",
		Description:    "Intro call",
		Start:          start,
		Duration:       30 * time.Minute,
		OrganizerEmail: "owner@example.com",
		AttendeeName:   "Sam Visitor",
		AttendeeEmail:  "sam@example.com",
		Timestamp:      stamp,
	}

	out := ev.Render()
	lines := strings.Split(out, "\r\n")
	if lines[0] != "BEGIN:VCALENDAR" {
		t.Fatalf("expected VCALENDAR opening, got %q", lines[0])
	}
	if !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
		t.Fatalf("expected VCALENDAR closing, got %q", out)
	}

	wantLines := []string{
		"UID:appt-1@getat.me",
		"DTSTAMP:20260601T120000Z",
		"DTSTART:20260610T093000",
		"DTEND:20260610T100000",
		"SUMMARY:Appointment with Devon",
		"DESCRIPTION:Intro call",
		"ORGANIZER:mailto:owner@example.com",
		"ATTENDEE;CN=Sam Visitor:mailto:sam@example.com",
		"STATUS:CONFIRMED",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want+"\r\n") {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}

func TestRender_DefaultDuration(t *testing.T) {
	start := time.Date(2026, 6, 10, 16, 0, 0, 0, time.UTC)
	out := Event{UID: "x", Summary: "s", Start: start}.Render()
	if !strings.Contains(out, "DTEND:20260610T163000\r\n") {
		t.Fatalf("expected 30-minute default duration, got:\n%s", out)
	}
}

func TestRender_EscapesText(t *testing.T) {
	start := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)
	out := Event{
		UID:     "x",
		Summary: "Coffee; chat, maybe\nlonger",
		Start:   start,
	}.Render()
	if !strings.Contains(out, "SUMMARY:Coffee\\; chat\\, maybe\\nlonger\r\n") {
		t.Fatalf("text not escaped:\n%s", out)
	}
}
