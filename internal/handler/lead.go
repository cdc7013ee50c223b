package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/service"
)

type LeadService interface {
	List(ctx context.Context, q service.LeadQuery) ([]service.LeadDTO, service.Pagination, error)
	Get(ctx context.Context, ref string) (service.LeadDTO, error)
	Create(ctx context.Context, in service.LeadInput) (service.LeadDTO, error)
	Update(ctx context.Context, ref string, in service.LeadInput) (service.LeadDTO, error)
	UpdateStatus(ctx context.Context, ref, status string) (service.LeadDTO, error)
	Delete(ctx context.Context, ref string) error
}

type LeadHandler struct {
	Leads LeadService
}

func NewLeadHandler(s LeadService) *LeadHandler {
	if s == nil {
		panic("nil service passed to NewLeadHandler")
	}
	return &LeadHandler{Leads: s}
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *LeadHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	rows, p, err := h.Leads.List(ctx, service.LeadQuery{
		ListQuery: listQuery(c),
		Status:    c.QueryParam("status"),
		Location:  c.QueryParam("location"),
		Search:    c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return paged(c, rows, p)
}

func (h *LeadHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Leads.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, l)
}

// Create is the public enquiry form endpoint.
func (h *LeadHandler) Create(c echo.Context) error {
	var in service.LeadInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Leads.Create(ctx, in)
	if err != nil {
		return err
	}
	return created(c, "Lead created successfully", l)
}

func (h *LeadHandler) Update(c echo.Context) error {
	var in service.LeadInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Leads.Update(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return okMessage(c, "Lead updated successfully", l)
}

func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Leads.UpdateStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return okMessage(c, "Lead status updated successfully", l)
}

func (h *LeadHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Leads.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return okMessage(c, "Lead deleted successfully", nil)
}
