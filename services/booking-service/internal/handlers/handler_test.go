package handlers

import "testing"

func TestParseDate(t *testing.T) {
	day, ok := parseDate("2026-06-10")
	if !ok {
		t.Fatal("expected valid date")
	}
	if day.Format("2006-01-02") != "2026-06-10" {
		t.Fatalf("unexpected parsed date %s", day.Format("2006-01-02"))
	}

	for _, s := range []string{"", "2026-6-10", "10-06-2026", "2026-13-01", "2026-02-30", "not-a-date"} {
		if _, ok := parseDate(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestContainsSlot(t *testing.T) {
	slots := []string{"09:00", "09:30", "10:00"}
	if !containsSlot(slots, "09:30") {
		t.Fatal("expected 09:30 to be present")
	}
	if containsSlot(slots, "09:15") {
		t.Fatal("expected 09:15 to be absent")
	}
	if containsSlot(nil, "09:00") {
		t.Fatal("expected empty slot list to contain nothing")
	}
}
