package service

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/validate"
)

const locationNotFound = "Location not found"

type LocationDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toLocationDTO(l *model.Location) LocationDTO {
	return LocationDTO{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Image:       l.Image,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type LocationInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"isActive"`
}

func (in LocationInput) applyTo(l *model.Location) {
	if in.Name != nil {
		l.Name = trimmed(in.Name)
	}
	if in.Description != nil {
		l.Description = trimmed(in.Description)
	}
	if in.Image != nil {
		l.Image = trimmed(in.Image)
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
}

func validateLocation(l *model.Location) error {
	return validate.Check(validation.Errors{
		"name":  validation.Validate(l.Name, validation.Required.Error("Location name is required"), validation.Length(1, 100)),
		"image": validation.Validate(l.Image, is.URL.Error("must be a valid URL")),
	}.Filter())
}

// LocationService manages the cities spaces are listed under.  Public
// location responses are cached, so every write purges the cache.
type LocationService struct {
	locations LocationStore
	spaces    SpaceStore
	cache     Purger
	log       *zap.Logger
}

// NewLocationService accepts a nil cache.
func NewLocationService(locations LocationStore, spaces SpaceStore, cache Purger, log *zap.Logger) *LocationService {
	return &LocationService{locations: locations, spaces: spaces, cache: cache, log: log}
}

func (s *LocationService) List(ctx context.Context, active *bool) ([]LocationDTO, error) {
	rows, err := s.locations.List(ctx, active)
	if err != nil {
		return nil, fail(err, locationNotFound)
	}
	out := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toLocationDTO(&rows[i]))
	}
	return out, nil
}

func (s *LocationService) Get(ctx context.Context, id uint64) (LocationDTO, error) {
	l, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return LocationDTO{}, fail(err, locationNotFound)
	}
	return toLocationDTO(l), nil
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (LocationDTO, error) {
	l := model.Location{IsActive: true}
	in.applyTo(&l)
	if err := validateLocation(&l); err != nil {
		return LocationDTO{}, err
	}
	if err := s.ensureUnique(ctx, l.Name, 0); err != nil {
		return LocationDTO{}, err
	}
	if err := s.locations.Create(ctx, &l); err != nil {
		return LocationDTO{}, fail(err, locationNotFound)
	}
	s.purge(ctx)
	return toLocationDTO(&l), nil
}

func (s *LocationService) Update(ctx context.Context, id uint64, in LocationInput) (LocationDTO, error) {
	cur, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return LocationDTO{}, fail(err, locationNotFound)
	}
	next := *cur
	in.applyTo(&next)
	if err := validateLocation(&next); err != nil {
		return LocationDTO{}, err
	}
	if next.Name != cur.Name {
		if err := s.ensureUnique(ctx, next.Name, id); err != nil {
			return LocationDTO{}, err
		}
	}
	if err := s.locations.Update(ctx, &next); err != nil {
		return LocationDTO{}, fail(err, locationNotFound)
	}
	s.purge(ctx)
	return toLocationDTO(&next), nil
}

// Delete refuses while any live space still references the location.
func (s *LocationService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.locations.FindByID(ctx, id); err != nil {
		return fail(err, locationNotFound)
	}
	n, err := s.spaces.CountByCity(ctx, id)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if n > 0 {
		return apperr.Validation("Cannot delete location because it is associated with one or more spaces.")
	}
	if err := s.locations.Delete(ctx, id); err != nil {
		return fail(err, locationNotFound)
	}
	s.purge(ctx)
	return nil
}

func (s *LocationService) ensureUnique(ctx context.Context, name string, excludeID uint64) error {
	exists, err := s.locations.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if exists {
		return apperr.Conflict(fmt.Sprintf(`Location "%s" already exists`, name))
	}
	return nil
}

func (s *LocationService) purge(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		s.log.Warn("location cache purge failed", zap.Error(err))
	}
}
