package model

import "time"

// Space statuses.
const (
	SpaceStatusActive   = "active"
	SpaceStatusInactive = "inactive"
	SpaceStatusPending  = "pending"
)

// SpaceStatuses lists every accepted Space.Status value.
var SpaceStatuses = []string{SpaceStatusActive, SpaceStatusInactive, SpaceStatusPending}

// Space represents a coworking listing stored in the `spaces` table.
// Amenities, Pricing, Address, Contact and Images live in JSON columns.
// CityID references locations.id; the reference is checked by the service
// layer, not by a foreign key, so that a location row can be inspected
// before it is removed.
//
// Fields:
//
//	SpaceID  – generated business key, SP-<year>-<seq>, immutable.
//	CityName – locations.name, filled by joins on read only.
//	IsDeleted – soft delete flag; deleted rows keep their SpaceID.
type Space struct {
	ID               uint64    // spaces.id
	SpaceID          string    // spaces.space_id
	SpaceName        string    // spaces.space_name
	SpaceType        string    // spaces.space_type
	CityID           uint64    // spaces.city_id
	CityName         string    // locations.name (joined)
	SpaceCategory    string    // spaces.space_category
	ShortDescription string    // spaces.short_description
	LongDescription  string    // spaces.long_description
	Amenities        []string  // spaces.amenities (JSON)
	Pricing          *Pricing  // spaces.pricing (JSON, nullable)
	Address          *Address  // spaces.address (JSON, nullable)
	Contact          *Contact  // spaces.contact (JSON, nullable)
	Images           []string  // spaces.images (JSON)
	Status           string    // spaces.status
	IsFeatured       bool      // spaces.is_featured
	IsDeleted        bool      // spaces.is_deleted
	CreatedAt        time.Time // spaces.created_at
	UpdatedAt        time.Time // spaces.updated_at
}

// Pricing holds per-product monthly prices.  Nil means "not offered".
type Pricing struct {
	HotDesk       *float64 `json:"hotDesk,omitempty"`
	DedicatedDesk *float64 `json:"dedicatedDesk,omitempty"`
	PrivateOffice *float64 `json:"privateOffice,omitempty"`
}

// Address is the street location of a space.
type Address struct {
	Address   string   `json:"address"`
	Pincode   string   `json:"pincode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Contact is the on-site contact person.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
