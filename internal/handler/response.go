// Package handler holds the echo handlers for the admin API.  Handlers bind
// and shape requests, call a service and wrap the result in the response
// envelope.  Failures are returned, never written: HTTPErrorHandler renders
// them.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Error      string              `json:"error,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func okMessage(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg, Data: data})
}

func created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: msg, Data: data})
}

func paged(c echo.Context, data any, p service.Pagination) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the body into v.  echo's own bind errors carry Go type
// names, so they are replaced by one client-facing message.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}

// listQuery reads page and limit.  Garbage is treated as absent and the
// repository layer applies the defaults.
func listQuery(c echo.Context) service.ListQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return service.ListQuery{Page: page, Limit: limit}
}

func idParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid ID format")
	}
	return id, nil
}
