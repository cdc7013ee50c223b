package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is the liveness/readiness probe.  It answers 503 when the
// database does not respond within two seconds.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := map[string]any{"status": "ok", "timestamp": time.Now().UTC()}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				body["status"] = "degraded"
				body["database"] = "unreachable"
				return c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Message: "Database unreachable", Data: body})
			}
			body["database"] = "ok"
		}
		return ok(c, body)
	}
}
