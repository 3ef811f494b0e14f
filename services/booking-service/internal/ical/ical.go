// Package ical renders a single appointment as an iCalendar payload.
// Pure formatting; no external calendar integration.
package ical

import (
	"strings"
	"time"
)

type Event struct {
	UID            string
	Summary        string
	Description    string
	Start          time.Time
	Duration       time.Duration
	OrganizerEmail string
	AttendeeName   string
	AttendeeEmail  string
	Timestamp      time.Time
}

const timeLayout = "20060102T150405"

// Render produces a VCALENDAR with one VEVENT. Lines are CRLF-separated
// per RFC 5545. Start is treated as floating local time (the slot is a
// wall-clock value in the owner's day).
func (e Event) Render() string {
	duration := e.Duration
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	stamp := e.Timestamp
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}

	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:-//Get At Me//Booking//EN")
	writeLine("BEGIN:VEVENT")
	writeLine("UID:" + escapeText(e.UID))
	writeLine("DTSTAMP:" + stamp.UTC().Format(timeLayout) + "Z")
	writeLine("DTSTART:" + e.Start.Format(timeLayout))
	writeLine("DTEND:" + e.Start.Add(duration).Format(timeLayout))
	writeLine("SUMMARY:" + escapeText(e.Summary))
	if e.Description != "" {
		writeLine("DESCRIPTION:" + escapeText(e.Description))
	}
	if e.OrganizerEmail != "" {
		writeLine("ORGANIZER:mailto:" + e.OrganizerEmail)
	}
	if e.AttendeeEmail != "" {
		attendee := "ATTENDEE"
		if e.AttendeeName != "" {
			attendee += ";CN=" + escapeParam(e.AttendeeName)
		}
		writeLine(attendee + ":mailto:" + e.AttendeeEmail)
	}
	writeLine("STATUS:CONFIRMED")
	writeLine("END:VEVENT")
	writeLine("END:VCALENDAR")
	return b.String()
}

// escapeText escapes TEXT values per RFC 5545 3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return r.Replace(s)
}

// escapeParam strips characters that would break a parameter value.
func escapeParam(s string) string {
	r := strings.NewReplacer(
		";", "",
		":", "",
		"\"", "",
		"\r", "",
		"\n", "",
	)
	return r.Replace(s)
}
