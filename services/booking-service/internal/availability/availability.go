package availability

import (
	"fmt"
	"time"
)

// SlotInterval is the fixed booking slot length. Making it configurable
// per owner is a possible extension; nothing in the product needs it yet.
const SlotInterval = 30 * time.Minute

// horizonDays bounds candidate-day enumeration so a config with few (or
// no) enabled weekdays cannot send the walk off indefinitely.
const horizonDays = 30

type Weekdays struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

func (w Weekdays) On(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	case time.Sunday:
		return w.Sunday
	}
	return false
}

// Config is a fully resolved weekly booking schedule. StartTime and
// EndTime are zero-padded HH:MM wall-clock strings, so lexicographic
// comparison equals chronological comparison within a day.
type Config struct {
	Enabled   bool     `json:"enabled"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Weekdays  Weekdays `json:"weekdays"`
}

// Patch is a partial config update; nil fields keep their prior value.
type Patch struct {
	Enabled   *bool          `json:"enabled"`
	StartTime *string        `json:"start_time"`
	EndTime   *string        `json:"end_time"`
	Weekdays  *WeekdaysPatch `json:"weekdays"`
}

type WeekdaysPatch struct {
	Monday    *bool `json:"monday"`
	Tuesday   *bool `json:"tuesday"`
	Wednesday *bool `json:"wednesday"`
	Thursday  *bool `json:"thursday"`
	Friday    *bool `json:"friday"`
	Saturday  *bool `json:"saturday"`
	Sunday    *bool `json:"sunday"`
}

// Defaults returns the schedule every owner starts from: weekday
// business hours, booking switched off until the owner enables it.
func Defaults() Config {
	return Config{
		Enabled:   false,
		StartTime: "09:00",
		EndTime:   "17:00",
		Weekdays: Weekdays{
			Monday:    true,
			Tuesday:   true,
			Wednesday: true,
			Thursday:  true,
			Friday:    true,
		},
	}
}

// Resolve merges explicit patch values over the stored config over the
// defaults. stored may be nil (owner never saved a config). Both read
// and write paths go through here so default-filling lives in one place.
func Resolve(stored *Config, patch Patch) Config {
	cfg := Defaults()
	if stored != nil {
		cfg = *stored
	}
	if patch.Enabled != nil {
		cfg.Enabled = *patch.Enabled
	}
	if patch.StartTime != nil {
		cfg.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		cfg.EndTime = *patch.EndTime
	}
	if patch.Weekdays != nil {
		wp := patch.Weekdays
		if wp.Monday != nil {
			cfg.Weekdays.Monday = *wp.Monday
		}
		if wp.Tuesday != nil {
			cfg.Weekdays.Tuesday = *wp.Tuesday
		}
		if wp.Wednesday != nil {
			cfg.Weekdays.Wednesday = *wp.Wednesday
		}
		if wp.Thursday != nil {
			cfg.Weekdays.Thursday = *wp.Thursday
		}
		if wp.Friday != nil {
			cfg.Weekdays.Friday = *wp.Friday
		}
		if wp.Saturday != nil {
			cfg.Weekdays.Saturday = *wp.Saturday
		}
		if wp.Sunday != nil {
			cfg.Weekdays.Sunday = *wp.Sunday
		}
	}
	return cfg
}

// ValidateClock reports whether s is a strict zero-padded 24-hour HH:MM.
func ValidateClock(s string) bool {
	_, ok := clockMinutes(s)
	return ok
}

func clockMinutes(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	min := int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || min > 59 {
		return 0, false
	}
	return hour*60 + min, true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateSlots returns slot start times at fixed interval boundaries
// from start (inclusive) while the whole slot still fits before end.
// Malformed clocks or start >= end yield an empty sequence; config
// validation should have rejected those already.
func GenerateSlots(start, end string, interval time.Duration) []string {
	step := int(interval / time.Minute)
	if step <= 0 {
		return nil
	}
	startMin, ok := clockMinutes(start)
	if !ok {
		return nil
	}
	endMin, ok := clockMinutes(end)
	if !ok {
		return nil
	}
	if startMin >= endMin {
		return nil
	}

	var slots []string
	for m := startMin; m+step <= endMin; m += step {
		slots = append(slots, formatClock(m))
	}
	return slots
}

// CandidateDays walks forward from `from` one calendar day at a time,
// collecting dates whose weekday is enabled in cfg, skipping dates
// strictly before today (in now's terms). The walk stops after count
// dates or horizonDays past `from`, whichever comes first, so the
// result may be shorter than count.
func CandidateDays(cfg Config, from time.Time, count int, now time.Time) []time.Time {
	if count <= 0 {
		return nil
	}
	today := truncateDay(now)
	start := truncateDay(from)

	var days []time.Time
	for offset := 0; offset <= horizonDays && len(days) < count; offset++ {
		day := start.AddDate(0, 0, offset)
		if day.Before(today) {
			continue
		}
		if !cfg.Weekdays.On(day.Weekday()) {
			continue
		}
		days = append(days, day)
	}
	return days
}

// FreeSlots returns slots minus the booked times, preserving order.
func FreeSlots(slots []string, booked []string) []string {
	if len(booked) == 0 {
		return slots
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s]; ok {
			continue
		}
		free = append(free, s)
	}
	return free
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
