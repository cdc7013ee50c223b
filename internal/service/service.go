// Package service holds the business rules between the HTTP handlers and
// the repositories.  Services take and return plain Go values, and every
// failure they return is an *apperr.Error.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/repository"
)

// SpaceStore is the subset of repository.SpaceRepo used by the services.
type SpaceStore interface {
	FindAll(ctx context.Context, f repository.SpaceFilter, p repository.Page) ([]model.Space, int64, error)
	FindFeatured(ctx context.Context) ([]model.Space, error)
	FindByID(ctx context.Context, id uint64) (*model.Space, error)
	FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error)
	Create(ctx context.Context, sp *model.Space) error
	UpdateByID(ctx context.Context, id uint64, sp *model.Space) error
	SoftDeleteByID(ctx context.Context, id uint64) error
	HardDeleteByID(ctx context.Context, id uint64) error
	ExistsByNameAndCity(ctx context.Context, name string, cityID, excludeID uint64) (bool, error)
	CountByCity(ctx context.Context, cityID uint64) (int64, error)
}

type LeadStore interface {
	FindAll(ctx context.Context, f repository.LeadFilter, p repository.Page) ([]model.Lead, int64, error)
	FindRecent(ctx context.Context, n int) ([]model.Lead, error)
	FindByID(ctx context.Context, id uint64) (*model.Lead, error)
	FindByLeadID(ctx context.Context, leadID string) (*model.Lead, error)
	Create(ctx context.Context, l *model.Lead) error
	UpdateByID(ctx context.Context, id uint64, l *model.Lead) error
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Lead, error)
	SoftDeleteByID(ctx context.Context, id uint64) error
}

type LocationStore interface {
	List(ctx context.Context, active *bool) ([]model.Location, error)
	FindByID(ctx context.Context, id uint64) (*model.Location, error)
	ExistsByName(ctx context.Context, name string, excludeID uint64) (bool, error)
	Create(ctx context.Context, loc *model.Location) error
	Update(ctx context.Context, loc *model.Location) error
	Delete(ctx context.Context, id uint64) error
	CountActive(ctx context.Context) (int64, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	TouchLogin(ctx context.Context, id uint64, at time.Time) error
}

type ResetTokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	MarkUsed(ctx context.Context, tokenHash string, now time.Time) error
}

type DashboardStore interface {
	SpacesByStatus(ctx context.Context) ([]repository.Bucket, error)
	SpacesByType(ctx context.Context) ([]repository.Bucket, error)
	SpacesByCity(ctx context.Context, limit int) ([]repository.Bucket, error)
	LeadsByStatus(ctx context.Context) ([]repository.Bucket, error)
}

// Purger drops cached public responses after a write.
type Purger interface {
	Purge(ctx context.Context) error
}

// ListQuery is the pagination part of a list request.
type ListQuery struct {
	Page  int
	Limit int
}

// Pagination is returned next to every paged listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func paginate(p repository.Page, total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: p.TotalPages(total)}
}

// fail classifies a repository error.  notFound is the message used when
// the row is missing or soft-deleted.
func fail(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("Resource already exists")
	default:
		return apperr.Unexpected(err)
	}
}

// numericRef reports whether a path reference is a database id rather than
// a business key.
func numericRef(ref string) (uint64, bool) {
	id, err := strconv.ParseUint(ref, 10, 64)
	return id, err == nil && id > 0
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
