// Package templates renders the visitor-facing emails for appointment
// lifecycle events.
package templates

import (
	"fmt"
	"html/template"
	"strings"
)

type AppointmentData struct {
	VisitorName string
	OwnerHandle string
	Date        string
	SlotTime    string
	Reason      string
}

var bookedTmpl = template.Must(template.New("booked").Parse(`<html><body>
<p>Hi {{.VisitorName}},</p>
<p>Your appointment request for <strong>{{.Date}}</strong> at <strong>{{.SlotTime}}</strong> has been received and is awaiting confirmation.</p>
<p>You will get another email once it is confirmed.</p>
<p>— Get At Me</p>
</body></html>`))

var cancelledTmpl = template.Must(template.New("cancelled").Parse(`<html><body>
<p>Hi {{.VisitorName}},</p>
<p>Your appointment on <strong>{{.Date}}</strong> at <strong>{{.SlotTime}}</strong> has been cancelled.</p>
<p>— Get At Me</p>
</body></html>`))

var rescheduleTmpl = template.Must(template.New("reschedule").Parse(`<html><body>
<p>Hi {{.VisitorName}},</p>
<p>Your appointment on <strong>{{.Date}}</strong> at <strong>{{.SlotTime}}</strong> can no longer take place at that time.</p>
<p>Please visit the booking page to pick a new slot.</p>
<p>— Get At Me</p>
</body></html>`))

// Render returns the subject and HTML body for the given event type.
func Render(eventType string, data AppointmentData) (subject string, body string, err error) {
	if data.VisitorName == "" {
		data.VisitorName = "there"
	}

	var tmpl *template.Template
	switch eventType {
	case "booking.appointment.booked.v1":
		subject = fmt.Sprintf("Appointment requested for %s %s", data.Date, data.SlotTime)
		tmpl = bookedTmpl
	case "booking.appointment.cancelled.v1":
		subject = fmt.Sprintf("Appointment on %s cancelled", data.Date)
		tmpl = cancelledTmpl
	case "booking.appointment.reschedule_requested.v1":
		subject = fmt.Sprintf("Please rebook your appointment on %s", data.Date)
		tmpl = rescheduleTmpl
	default:
		return "", "", fmt.Errorf("no template for event type %q", eventType)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", "", err
	}
	return subject, sb.String(), nil
}
