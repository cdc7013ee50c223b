// Package queue carries admin notifications over RabbitMQ.  Services
// publish Events; the consumer hands each one to a Handler (the mailer).
package queue

import "time"

// Event types.
const (
	EventLeadCreated            = "lead.created"
	EventPasswordResetRequested = "password.reset_requested"
)

// Event is the JSON payload of one notification.
type Event struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Lead       *LeadPayload  `json:"lead,omitempty"`
	Reset      *ResetPayload `json:"reset,omitempty"`
}

// LeadPayload is enough of a lead to write the notification without
// querying the database.
type LeadPayload struct {
	LeadID        string `json:"lead_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EnquiredFor   string `json:"enquired_for"`
	SpaceType     string `json:"space_type"`
	NumberOfSeats *int   `json:"number_of_seats,omitempty"`
	Location      string `json:"location,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ResetPayload addresses a password reset mail.
type ResetPayload struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	ResetURL string `json:"reset_url"`
}
