package model

import "time"

// Location is a city that spaces are listed under.  Rows are physically
// deleted, but only while no live space references them.
type Location struct {
	ID          uint64    // locations.id
	Name        string    // locations.name (unique, case-insensitive)
	Description string    // locations.description
	Image       string    // locations.image (URL)
	IsActive    bool      // locations.is_active
	CreatedAt   time.Time // locations.created_at
	UpdatedAt   time.Time // locations.updated_at
}
