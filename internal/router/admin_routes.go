package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/middleware"
	"github.com/coworkdir/admin-api/internal/model"
)

// RegisterAdmin mounts the dashboard endpoints.  All of them need a bearer
// token; permanent deletes need super_admin and location writes need one of
// the admin roles.
func RegisterAdmin(g *echo.Group, h Handlers, mw Middleware) {
	auth := []echo.MiddlewareFunc{mw.Auth}
	anyAdmin := []echo.MiddlewareFunc{mw.Auth, middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)}
	superAdmin := []echo.MiddlewareFunc{mw.Auth, middleware.RequireRole(model.RoleSuperAdmin)}

	// ---- Spaces ----
	s := h.Spaces
	g.GET("/spaces", s.List, auth...)
	g.GET("/spaces/featured", s.Featured, auth...)
	g.GET("/spaces/:id", s.Get, auth...)
	g.POST("/spaces", s.Create, auth...)
	g.PUT("/spaces/:id", s.Update, auth...)
	g.DELETE("/spaces/:id", s.Delete, auth...)
	g.DELETE("/spaces/:id/permanent", s.HardDelete, superAdmin...)

	// ---- Leads ----
	l := h.Leads
	g.GET("/leads", l.List, auth...)
	g.GET("/leads/:id", l.Get, auth...)
	g.PUT("/leads/:id", l.Update, auth...)
	g.PATCH("/leads/:id", l.UpdateStatus, auth...)
	g.DELETE("/leads/:id", l.Delete, auth...)

	// ---- Locations ----
	loc := h.Locations
	g.POST("/locations", loc.Create, anyAdmin...)
	g.PUT("/locations/:id", loc.Update, anyAdmin...)
	g.DELETE("/locations/:id", loc.Delete, anyAdmin...)

	// ---- Uploads ----
	u := h.Uploads
	g.POST("/upload", u.Upload, auth...)
	g.POST("/upload/multiple", u.UploadMultiple, auth...)
	g.DELETE("/upload", u.Delete, auth...)
	g.DELETE("/upload/multiple", u.DeleteMultiple, auth...)
	g.GET("/upload/signed-url", u.SignedURL, auth...)
	g.GET("/upload/presigned-put", u.PresignedPut, auth...)

	// ---- Dashboard ----
	g.GET("/dashboard/stats", h.Dashboard.Stats, auth...)
}
