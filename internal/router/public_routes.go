package router

import "github.com/labstack/echo/v4"

// RegisterPublic mounts the endpoints the public website calls: location
// reads (cached in Redis) and the enquiry form.
func RegisterPublic(g *echo.Group, h Handlers, mw Middleware) {
	g.GET("/locations", h.Locations.List, mw.Cache)
	g.GET("/locations/:id", h.Locations.Get, mw.Cache)

	g.POST("/leads", h.Leads.Create, mw.AuthLimit)
}
