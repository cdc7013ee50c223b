package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/service"
)

type LocationService interface {
	List(ctx context.Context, active *bool) ([]service.LocationDTO, error)
	Get(ctx context.Context, id uint64) (service.LocationDTO, error)
	Create(ctx context.Context, in service.LocationInput) (service.LocationDTO, error)
	Update(ctx context.Context, id uint64, in service.LocationInput) (service.LocationDTO, error)
	Delete(ctx context.Context, id uint64) error
}

type LocationHandler struct {
	Locations LocationService
}

func NewLocationHandler(s LocationService) *LocationHandler {
	if s == nil {
		panic("nil service passed to NewLocationHandler")
	}
	return &LocationHandler{Locations: s}
}

// List handles GET /locations, optionally filtered by ?active=true|false.
func (h *LocationHandler) List(c echo.Context) error {
	var active *bool
	if raw := c.QueryParam("active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return apperr.Validation("Validation failed", apperr.FieldError{Field: "active", Message: "active must be true or false"})
		}
		active = &b
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	rows, err := h.Locations.List(ctx, active)
	if err != nil {
		return err
	}
	return ok(c, rows)
}

func (h *LocationHandler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Locations.Get(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, l)
}

func (h *LocationHandler) Create(c echo.Context) error {
	var in service.LocationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Locations.Create(ctx, in)
	if err != nil {
		return err
	}
	return created(c, "Location created successfully", l)
}

func (h *LocationHandler) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.LocationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Locations.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return okMessage(c, "Location updated successfully", l)
}

func (h *LocationHandler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Locations.Delete(ctx, id); err != nil {
		return err
	}
	return okMessage(c, "Location deleted successfully", nil)
}
