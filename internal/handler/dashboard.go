package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/service"
)

type DashboardService interface {
	Stats(ctx context.Context) (service.DashboardStats, error)
}

type DashboardHandler struct {
	Dashboard DashboardService
}

func NewDashboardHandler(s DashboardService) *DashboardHandler {
	if s == nil {
		panic("nil service passed to NewDashboardHandler")
	}
	return &DashboardHandler{Dashboard: s}
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Dashboard.Stats(ctx)
	if err != nil {
		return err
	}
	return ok(c, st)
}
