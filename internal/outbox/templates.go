// Package outbox renders notification templates and dispatches queued
// email jobs through the configured provider.
package outbox

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/tandaclean/site/internal/domain"
)

// GuestVerificationPayload is the data for the guest_verification
// template. JSON names match what the booking flow stores in the queue.
type GuestVerificationPayload struct {
	Name            string `json:"name"`
	PickupLocation  string `json:"pickupLocation"`
	VerificationURL string `json:"verificationUrl"`
}

// AppointmentConfirmedPayload is the data for the appointment_confirmed
// template.
type AppointmentConfirmedPayload struct {
	Name           string `json:"name"`
	PickupLocation string `json:"pickupLocation"`
	ScheduledAt    string `json:"scheduledAt"`
	ServiceName    string `json:"serviceName"`
	AssignedStaff  string `json:"assignedStaff"`
}

const (
	fallbackSubject = "T&A booking update"
	fallbackHTML    = "<p>There is an update regarding your booking.</p>"
)

var emailShell = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
  </head>
  <body style="margin:0;background:#111;font-family:Arial,sans-serif;color:#ebebeb;">
    <table width="100%%" cellspacing="0" cellpadding="0" style="background:#111;padding:32px 0;">
      <tr>
        <td align="center">
          <table width="560" cellspacing="0" cellpadding="0" style="background:#1f1f1f;border:1px solid #2c2c2c;padding:28px;">
            <tr>
              <td style="font-size:12px;text-transform:uppercase;letter-spacing:0.2em;color:#aee5e0;">T&amp;A Booking</td>
            </tr>
%s
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`

var guestVerificationTmpl = template.Must(template.New(domain.TemplateGuestVerification).Parse(fmt.Sprintf(emailShell, `
            <tr>
              <td style="font-size:22px;text-transform:uppercase;letter-spacing:0.12em;padding-top:12px;">Verify your request</td>
            </tr>
            <tr>
              <td style="font-size:14px;line-height:1.6;color:#cfcfcf;padding-top:12px;">
                Hi {{.Name}}, thanks for choosing T&amp;A. Please confirm your booking request for {{.PickupLocation}}.
              </td>
            </tr>
            <tr>
              <td style="padding-top:20px;">
                <a href="{{.VerificationURL}}" style="display:inline-block;background:#3ab7b9;color:#111;padding:12px 20px;text-decoration:none;text-transform:uppercase;letter-spacing:0.18em;font-size:12px;">Verify booking</a>
              </td>
            </tr>
            <tr>
              <td style="font-size:12px;color:#8f8f8f;padding-top:18px;">
                If the button does not work, copy and paste this link into your browser:<br/>
                {{.VerificationURL}}
              </td>
            </tr>`)))

var appointmentConfirmedTmpl = template.Must(template.New(domain.TemplateAppointmentConfirmed).Parse(fmt.Sprintf(emailShell, `
            <tr>
              <td style="font-size:22px;text-transform:uppercase;letter-spacing:0.12em;padding-top:12px;">Pickup confirmed</td>
            </tr>
            <tr>
              <td style="font-size:14px;line-height:1.6;color:#cfcfcf;padding-top:12px;">
                Hi {{.Name}}, your {{.ServiceName}} appointment is confirmed.
              </td>
            </tr>
            <tr>
              <td style="font-size:14px;line-height:1.6;color:#cfcfcf;padding-top:8px;">
                Pickup time: {{.ScheduledAt}}<br/>
                Location: {{.PickupLocation}}<br/>
                Assigned: {{.AssignedStaff}}
              </td>
            </tr>`)))

// Render produces the subject and HTML body for a queued job. Unknown
// templates and malformed payloads fall back to a generic update email
// rather than failing the job.
func Render(templateName string, payload []byte) (subject, html string) {
	switch templateName {
	case domain.TemplateGuestVerification:
		var p GuestVerificationPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return fallbackSubject, fallbackHTML
			}
		}
		if p.Name == "" {
			p.Name = "there"
		}
		if p.PickupLocation == "" {
			p.PickupLocation = "your address"
		}
		if p.VerificationURL == "" {
			p.VerificationURL = "#"
		}
		var b strings.Builder
		if err := guestVerificationTmpl.Execute(&b, p); err != nil {
			return fallbackSubject, fallbackHTML
		}
		return "Confirm your T&A booking request", b.String()

	case domain.TemplateAppointmentConfirmed:
		var p AppointmentConfirmedPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return fallbackSubject, fallbackHTML
			}
		}
		if p.Name == "" {
			p.Name = "there"
		}
		if p.PickupLocation == "" {
			p.PickupLocation = "your address"
		}
		if p.ScheduledAt == "" {
			p.ScheduledAt = "To be confirmed"
		}
		if p.ServiceName == "" {
			p.ServiceName = "Car cleaning"
		}
		if p.AssignedStaff == "" {
			p.AssignedStaff = "our team"
		}
		var b strings.Builder
		if err := appointmentConfirmedTmpl.Execute(&b, p); err != nil {
			return fallbackSubject, fallbackHTML
		}
		return "Your T&A pickup is confirmed", b.String()
	}

	return fallbackSubject, fallbackHTML
}
