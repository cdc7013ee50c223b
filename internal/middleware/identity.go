package middleware

// Context keys written by JWTAuth and RequestID.  Handlers read them through
// the accessors below instead of touching the keys directly.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxEmail     = "email"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated admin's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated admin's role, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// Email returns the authenticated admin's email, or "".
func Email(c echo.Context) string {
	e, _ := c.Get(ctxEmail).(string)
	return e
}

// RequestIDOf returns the id assigned by RequestID, or "".
func RequestIDOf(c echo.Context) string {
	id, _ := c.Get(ctxRequestID).(string)
	return id
}

// userKey identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
