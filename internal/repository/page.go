package repository

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects one window of a newest-first listing.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps out-of-range values: page < 1 becomes 1, limit < 1
// becomes DefaultPageSize and limit > MaxPageSize becomes MaxPageSize.
// Page is also capped so Offset never overflows; such a page is simply empty.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if maxPage := math.MaxInt/p.Limit + 1; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages returns ceil(total / limit).
func (p Page) TotalPages(total int64) int64 {
	if p.Limit < 1 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
