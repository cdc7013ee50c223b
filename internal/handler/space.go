package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/service"
)

// SpaceService is what SpaceHandler needs from *service.SpaceService.
type SpaceService interface {
	List(ctx context.Context, q service.SpaceQuery) ([]service.SpaceDTO, service.Pagination, error)
	Featured(ctx context.Context) ([]service.SpaceDTO, error)
	Get(ctx context.Context, ref string) (service.SpaceDTO, error)
	Create(ctx context.Context, in service.SpaceInput) (service.SpaceDTO, error)
	Update(ctx context.Context, ref string, in service.SpaceInput) (service.SpaceDTO, error)
	Delete(ctx context.Context, ref string) error
	HardDelete(ctx context.Context, ref string) error
}

type SpaceHandler struct {
	Spaces SpaceService
}

func NewSpaceHandler(s SpaceService) *SpaceHandler {
	if s == nil {
		panic("nil service passed to NewSpaceHandler")
	}
	return &SpaceHandler{Spaces: s}
}

// List handles GET /spaces?page&limit&status&city&search.
func (h *SpaceHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	rows, p, err := h.Spaces.List(ctx, service.SpaceQuery{
		ListQuery: listQuery(c),
		Status:    c.QueryParam("status"),
		City:      c.QueryParam("city"),
		Search:    c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return paged(c, rows, p)
}

func (h *SpaceHandler) Featured(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	rows, err := h.Spaces.Featured(ctx)
	if err != nil {
		return err
	}
	return ok(c, rows)
}

// Get accepts either the numeric id or the SP-YYYY-NNN key.
func (h *SpaceHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	sp, err := h.Spaces.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, sp)
}

func (h *SpaceHandler) Create(c echo.Context) error {
	var in service.SpaceInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sp, err := h.Spaces.Create(ctx, in)
	if err != nil {
		return err
	}
	return created(c, "Space created successfully", sp)
}

func (h *SpaceHandler) Update(c echo.Context) error {
	var in service.SpaceInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sp, err := h.Spaces.Update(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return okMessage(c, "Space updated successfully", sp)
}

// Delete is a soft delete; the row stays for reporting.
func (h *SpaceHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Spaces.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return okMessage(c, "Space deleted successfully", nil)
}

func (h *SpaceHandler) HardDelete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Spaces.HardDelete(ctx, c.Param("id")); err != nil {
		return err
	}
	return okMessage(c, "Space permanently deleted", nil)
}
