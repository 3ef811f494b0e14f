package availability

import (
	"testing"
	"time"
)

func TestGenerateSlots_Basic(t *testing.T) {
	slots := GenerateSlots("09:00", "10:00", SlotInterval)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d (%v)", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[1] != "09:30" {
		t.Fatalf("expected [09:00 09:30], got %v", slots)
	}
}

func TestGenerateSlots_Properties(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"09:00", "17:00", 16},
		{"09:00", "09:30", 1},
		{"09:00", "09:45", 1}, // partial trailing slot truncated
		{"00:00", "23:30", 47},
		{"08:15", "12:15", 8},
	}
	for _, tc := range cases {
		slots := GenerateSlots(tc.start, tc.end, SlotInterval)
		if len(slots) != tc.want {
			t.Fatalf("%s-%s: expected %d slots, got %d (%v)", tc.start, tc.end, tc.want, len(slots), slots)
		}
		if slots[0] != tc.start {
			t.Fatalf("%s-%s: first slot %s, want %s", tc.start, tc.end, slots[0], tc.start)
		}
		for i := 1; i < len(slots); i++ {
			if slots[i] <= slots[i-1] {
				t.Fatalf("%s-%s: slots not strictly increasing: %v", tc.start, tc.end, slots)
			}
		}
		if slots[len(slots)-1] >= tc.end {
			t.Fatalf("%s-%s: last slot %s not before end", tc.start, tc.end, slots[len(slots)-1])
		}
	}
}

func TestGenerateSlots_EmptyWindow(t *testing.T) {
	if slots := GenerateSlots("10:00", "10:00", SlotInterval); len(slots) != 0 {
		t.Fatalf("start == end should produce no slots, got %v", slots)
	}
	if slots := GenerateSlots("17:00", "09:00", SlotInterval); len(slots) != 0 {
		t.Fatalf("start > end should produce no slots, got %v", slots)
	}
	if slots := GenerateSlots("9:00", "10:00", SlotInterval); len(slots) != 0 {
		t.Fatalf("malformed start should produce no slots, got %v", slots)
	}
}

func TestValidateClock(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59"}
	for _, s := range valid {
		if !ValidateClock(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "9:00", "24:00", "12:60", "12-30", "12:3", "ab:cd", "012:30"}
	for _, s := range invalid {
		if ValidateClock(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestCandidateDays_SkipsDisabledWeekdays(t *testing.T) {
	cfg := Defaults()
	cfg.Enabled = true
	// Mon 2026-09-07.
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	days := CandidateDays(cfg, from, 10, from)
	if len(days) != 10 {
		t.Fatalf("expected 10 days, got %d", len(days))
	}
	for _, d := range days {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Fatalf("weekend day returned: %s", d.Format("2006-01-02"))
		}
	}
	if !days[0].Equal(from) {
		t.Fatalf("expected first day %s, got %s", from.Format("2006-01-02"), days[0].Format("2006-01-02"))
	}
	// Fri 2026-09-11 then Mon 2026-09-14.
	if days[4].Weekday() != time.Friday || days[5].Weekday() != time.Monday {
		t.Fatalf("expected Fri->Mon around the weekend, got %s -> %s", days[4].Weekday(), days[5].Weekday())
	}
}

func TestCandidateDays_HorizonBound(t *testing.T) {
	cfg := Defaults()
	cfg.Weekdays = Weekdays{Sunday: true}
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // Monday
	days := CandidateDays(cfg, from, 100, from)
	// Only Sundays within 30 days of from can appear, however large count is.
	if len(days) == 0 || len(days) > 5 {
		t.Fatalf("expected a handful of Sundays, got %d", len(days))
	}
	limit := from.AddDate(0, 0, 30)
	for _, d := range days {
		if d.After(limit) {
			t.Fatalf("day %s beyond 30-day horizon", d.Format("2006-01-02"))
		}
		if d.Weekday() != time.Sunday {
			t.Fatalf("non-Sunday returned: %s", d.Format("2006-01-02"))
		}
	}
}

func TestCandidateDays_AllDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Weekdays = Weekdays{}
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if days := CandidateDays(cfg, from, 50, from); len(days) != 0 {
		t.Fatalf("expected no days with all weekdays disabled, got %d", len(days))
	}
}

func TestCandidateDays_SkipsPastDates(t *testing.T) {
	cfg := Defaults()
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)  // Monday
	now := time.Date(2026, 9, 9, 15, 4, 5, 0, time.UTC) // Wednesday afternoon
	days := CandidateDays(cfg, from, 3, now)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].Format("2006-01-02") != "2026-09-09" {
		t.Fatalf("expected first day today, got %s", days[0].Format("2006-01-02"))
	}
}

func TestResolve_Defaults(t *testing.T) {
	cfg := Resolve(nil, Patch{})
	if cfg.Enabled {
		t.Fatal("booking should default to disabled")
	}
	if cfg.StartTime != "09:00" || cfg.EndTime != "17:00" {
		t.Fatalf("unexpected default window %s-%s", cfg.StartTime, cfg.EndTime)
	}
	if !cfg.Weekdays.Monday || !cfg.Weekdays.Friday || cfg.Weekdays.Saturday || cfg.Weekdays.Sunday {
		t.Fatalf("unexpected default weekdays: %+v", cfg.Weekdays)
	}
}

func TestResolve_PartialPatchPreservesStored(t *testing.T) {
	stored := Config{
		Enabled:   true,
		StartTime: "10:00",
		EndTime:   "14:00",
		Weekdays:  Weekdays{Tuesday: true, Saturday: true},
	}

	off := false
	got := Resolve(&stored, Patch{Enabled: &off})
	if got.Enabled {
		t.Fatal("enabled should be patched to false")
	}
	if got.StartTime != "10:00" || got.EndTime != "14:00" {
		t.Fatalf("window changed by unrelated patch: %s-%s", got.StartTime, got.EndTime)
	}
	if !got.Weekdays.Tuesday || !got.Weekdays.Saturday || got.Weekdays.Monday {
		t.Fatalf("weekdays changed by unrelated patch: %+v", got.Weekdays)
	}
}

func TestResolve_WeekdayPatchIsPerDay(t *testing.T) {
	stored := Config{StartTime: "09:00", EndTime: "17:00", Weekdays: Weekdays{Monday: true, Tuesday: true}}
	on := true
	got := Resolve(&stored, Patch{Weekdays: &WeekdaysPatch{Sunday: &on}})
	if !got.Weekdays.Monday || !got.Weekdays.Tuesday || !got.Weekdays.Sunday {
		t.Fatalf("expected Mon/Tue preserved and Sun enabled, got %+v", got.Weekdays)
	}
}

func TestFreeSlots(t *testing.T) {
	slots := GenerateSlots("09:00", "11:00", SlotInterval)
	free := FreeSlots(slots, []string{"09:30", "10:30"})
	if len(free) != 2 || free[0] != "09:00" || free[1] != "10:00" {
		t.Fatalf("unexpected free slots: %v", free)
	}
	if got := FreeSlots(slots, nil); len(got) != len(slots) {
		t.Fatalf("no bookings should leave all slots free, got %v", got)
	}
}
