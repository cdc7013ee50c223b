package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
)

// HTTPErrorHandler renders every failure in the response envelope.  Outside
// production the raw error text goes into the "error" field.
func HTTPErrorHandler(log *zap.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err, c)
		if status >= http.StatusInternalServerError {
			fields := []zap.Field{
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			}
			if !production {
				fields = append(fields, zap.Stack("stack"))
			}
			log.Error("request failed", fields...)
		}
		if !production {
			body.Error = err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func classify(err error, c echo.Context) (int, Envelope) {
	if ae, ok := apperr.As(err); ok {
		return ae.Kind.Status(), Envelope{Message: ae.Message, Errors: ae.Fields}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch {
		case errors.Is(err, echo.ErrNotFound):
			return http.StatusNotFound, Envelope{Message: fmt.Sprintf("Route %s not found", c.Request().URL.Path)}
		case he.Code >= http.StatusInternalServerError:
			return he.Code, Envelope{Message: "Internal server error"}
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, Envelope{Message: msg}
	}

	return http.StatusInternalServerError, Envelope{Message: "Internal server error"}
}
