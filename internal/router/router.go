// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/handler"
)

// Prefix is the base path of every API route.
const Prefix = "/api/v1"

// Handlers bundles the per-resource handlers.
type Handlers struct {
	Health    echo.HandlerFunc
	Auth      *handler.AuthHandler
	Spaces    *handler.SpaceHandler
	Leads     *handler.LeadHandler
	Locations *handler.LocationHandler
	Uploads   *handler.UploadHandler
	Dashboard *handler.DashboardHandler
}

// Middleware holds the route-level middleware built in main.  Global
// middleware (request id, access log, general rate limit) is attached to
// the echo instance directly.
type Middleware struct {
	Auth      echo.MiddlewareFunc // JWTAuth
	AuthLimit echo.MiddlewareFunc // strict bucket for public writes
	Cache     echo.MiddlewareFunc // public location reads
}

// Register mounts every route.  Middleware is attached per route rather
// than per group so the public and protected routes of one resource can
// share a path prefix.
func Register(e *echo.Echo, h Handlers, mw Middleware) {
	if mw.Auth == nil {
		panic("router: nil auth middleware")
	}
	mw.AuthLimit = orPass(mw.AuthLimit)
	mw.Cache = orPass(mw.Cache)

	e.GET("/healthz", h.Health)

	api := e.Group(Prefix)
	RegisterAuth(api, h.Auth, mw)
	RegisterPublic(api, h, mw)
	RegisterAdmin(api, h, mw)
}

// RegisterAuth mounts /auth and /settings.  Login and the reset flow are
// public and rate limited; the rest need a bearer token.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, mw Middleware) {
	g.POST("/auth/login", a.Login, mw.AuthLimit)
	g.POST("/auth/forgot-password", a.ForgotPassword, mw.AuthLimit)
	g.POST("/auth/reset-password", a.ResetPassword, mw.AuthLimit)

	g.POST("/auth/logout", a.Logout, mw.Auth)
	g.GET("/auth/me", a.Me, mw.Auth)
	g.PUT("/settings/password", a.ChangePassword, mw.Auth)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m != nil {
		return m
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
