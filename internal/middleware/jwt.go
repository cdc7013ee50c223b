package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/utils"
)

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (utils.Claims, error)
}

// Secret verifies HS256 tokens signed with a shared secret.
type Secret string

func (s Secret) Verify(raw string) (utils.Claims, error) {
	return utils.ParseAccessToken(string(s), raw)
}

// JWTAuth validates a Bearer access token and stores its subject, role and
// email in the context for UserID, Role and Email.  Failures go to the HTTP
// error handler as 401s.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return apperr.Unauthorized("Authentication required")
			}

			claims, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				return apperr.Unauthorized("Invalid or expired token")
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
			c.Set(ctxEmail, claims.Email)
			return next(c)
		}
	}
}
