package model

import "time"

// Lead statuses.  Any status may be set from any other.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost,
}

// Lead is an inbound enquiry stored in the `leads` table.  LeadID is the
// generated business key LD-<year>-<seq>.  Location is free text typed by
// the visitor, not a reference to the locations table.
type Lead struct {
	ID            uint64     // leads.id
	LeadID        string     // leads.lead_id
	Name          string     // leads.name
	Email         string     // leads.email (lower-cased)
	Phone         string     // leads.phone
	EnquiredFor   string     // leads.enquired_for
	SpaceType     string     // leads.space_type
	NumberOfSeats *int       // leads.number_of_seats (nullable)
	Location      string     // leads.location
	Message       string     // leads.message
	Date          *time.Time // leads.date (nullable)
	Status        string     // leads.status
	IsDeleted     bool       // leads.is_deleted
	CreatedAt     time.Time  // leads.created_at
	UpdatedAt     time.Time  // leads.updated_at
}
