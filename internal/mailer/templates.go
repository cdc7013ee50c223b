package mailer

import (
	"bytes"
	"html/template"
	"strconv"
)

const PasswordResetSubject = "Password Reset Request - CoWork Kerala"

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Password Reset</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #4F46E5; color: #ffffff; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
      <h1 style="margin: 0;">Password Reset Request</h1>
    </div>
    <div style="background-color: #f9fafb; padding: 30px; border-radius: 0 0 8px 8px;">
      <p>Hello {{if .Name}}{{.Name}}{{else}}Admin{{end}},</p>
      <p>We received a request to reset your password for your CoWork Kerala admin account.</p>
      <p>Click the button below to reset your password:</p>
      <div style="text-align: center; margin: 30px 0;">
        <a href="{{.ResetURL}}" style="background-color: #4F46E5; color: #ffffff; padding: 12px 30px; text-decoration: none; border-radius: 6px; display: inline-block;">Reset Password</a>
      </div>
      <p>Or copy and paste this link into your browser:</p>
      <p style="word-break: break-all; color: #4F46E5;">{{.ResetURL}}</p>
      <p><strong>This link will expire in 1 hour.</strong></p>
      <p>If you didn't request a password reset, please ignore this email or contact support if you have concerns.</p>
      <p>Best regards,<br>CoWork Kerala Team</p>
    </div>
  </div>
</body>
</html>
`))

var leadTmpl = template.Must(template.New("lead").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Lead</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4F46E5;">New enquiry {{.LeadID}}</h2>
    <table style="border-collapse: collapse;">
      <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
      <tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>
      <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
      <tr><td><strong>Enquired for</strong></td><td>{{.EnquiredFor}}</td></tr>
      <tr><td><strong>Space type</strong></td><td>{{.SpaceType}}</td></tr>
      {{- if .Seats}}
      <tr><td><strong>Seats</strong></td><td>{{.Seats}}</td></tr>
      {{- end}}
      {{- if .Location}}
      <tr><td><strong>Location</strong></td><td>{{.Location}}</td></tr>
      {{- end}}
    </table>
    {{- if .Message}}
    <p><strong>Message</strong></p>
    <p>{{.Message}}</p>
    {{- end}}
  </div>
</body>
</html>
`))

// PasswordReset renders the reset mail for one admin.
func PasswordReset(to, name, resetURL string) (Message, error) {
	var b bytes.Buffer
	err := resetTmpl.Execute(&b, struct{ Name, ResetURL string }{name, resetURL})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: PasswordResetSubject, HTML: b.String()}, nil
}

// LeadData is the view model for the new-lead alert.
type LeadData struct {
	LeadID      string
	Name        string
	Email       string
	Phone       string
	EnquiredFor string
	SpaceType   string
	Seats       int
	Location    string
	Message     string
}

// NewLead renders the alert sent to the admin inbox.
func NewLead(to string, d LeadData) (Message, error) {
	var b bytes.Buffer
	if err := leadTmpl.Execute(&b, d); err != nil {
		return Message{}, err
	}
	subject := "New lead " + d.LeadID + " from " + d.Name
	if d.Seats > 0 {
		subject += " (" + strconv.Itoa(d.Seats) + " seats)"
	}
	return Message{To: to, Subject: subject, HTML: b.String()}, nil
}
