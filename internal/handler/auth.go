package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/middleware"
	"github.com/coworkdir/admin-api/internal/service"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Me(ctx context.Context, userID uint64) (service.UserDTO, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error
}

// AuthHandler serves /auth and /settings.
type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(s AuthService) *AuthHandler {
	if s == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: s}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return okMessage(c, "Login successful", res)
}

// Logout is a no-op server side: tokens are stateless and the client drops
// its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return okMessage(c, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
	uid, found := middleware.UserID(c)
	if !found {
		return apperr.Unauthorized("Unauthorized")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, uid)
	if err != nil {
		return err
	}
	return ok(c, u)
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return err
	}
	return okMessage(c, "If the email exists, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return err
	}
	return okMessage(c, "Password has been reset successfully", nil)
}

// ChangePassword handles PUT /settings/password for the signed-in admin.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, found := middleware.UserID(c)
	if !found {
		return apperr.Unauthorized("Unauthorized")
	}
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return okMessage(c, "Password updated successfully", nil)
}
