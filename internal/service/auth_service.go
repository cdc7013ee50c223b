package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/queue"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/utils"
	"github.com/coworkdir/admin-api/internal/validate"
)

const (
	invalidCredentials = "Invalid email or password"
	invalidResetToken  = "Invalid or expired reset token"
	resetTokenBytes    = 32
	resetTokenTTL      = time.Hour
)

// AuthConfig is the part of the application config auth needs.
type AuthConfig struct {
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
	FrontendURL  string
}

type UserDTO struct {
	ID          uint64     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, IsActive: u.IsActive, LastLoginAt: u.LastLoginAt}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// AuthService issues bearer tokens and runs the password reset flow.  No
// session state is kept: a token is valid until it expires.
type AuthService struct {
	users  UserStore
	tokens ResetTokenStore
	pub    queue.Publisher
	cfg    AuthConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens ResetTokenStore, pub queue.Publisher, cfg AuthConfig, log *zap.Logger) *AuthService {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return &AuthService{users: users, tokens: tokens, pub: pub, cfg: cfg, log: log, now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Check(validation.Errors{
		"email":    validation.Validate(email, validation.Required.Error("Email is required"), is.EmailFormat.Error("Invalid email address")),
		"password": validation.Validate(password, validation.Required.Error("Password is required")),
	}.Filter()); err != nil {
		return LoginResult{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.BurnPasswordCheck(password)
		return LoginResult{}, apperr.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return LoginResult{}, apperr.Unexpected(err)
	}
	if !u.IsActive {
		return LoginResult{}, apperr.Forbidden("Account is inactive. Please contact support.")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperr.Unauthorized(invalidCredentials)
	}

	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return LoginResult{}, apperr.Unexpected(err)
	}
	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("last login not recorded", zap.Uint64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}
	return LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: toUserDTO(u)}, nil
}

// Verify checks a bearer token.
func (s *AuthService) Verify(raw string) (utils.Claims, error) {
	c, err := utils.ParseAccessToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return utils.Claims{}, apperr.Unauthorized("Invalid or expired token")
	}
	return c, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (UserDTO, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserDTO{}, fail(err, "User not found")
	}
	return toUserDTO(u), nil
}

// RequestPasswordReset never reveals whether email belongs to an account.
// For an active account it stores a fresh token and queues the reset mail.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Check(validation.Errors{
		"email": validation.Validate(email, validation.Required.Error("Email is required"), is.EmailFormat.Error("Invalid email address")),
	}.Filter()); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Unexpected(err)
	}
	if !u.IsActive {
		return nil
	}

	raw, err := utils.NewOpaqueToken(resetTokenBytes)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if err := s.tokens.Store(ctx, u.ID, utils.HashToken(raw), s.now().Add(resetTokenTTL)); err != nil {
		return apperr.Unexpected(err)
	}

	err = s.pub.Publish(ctx, queue.Event{
		Type:       queue.EventPasswordResetRequested,
		OccurredAt: s.now().UTC(),
		Reset:      &queue.ResetPayload{To: u.Email, Name: u.Name, ResetURL: s.resetURL(raw)},
	})
	if err != nil {
		s.log.Error("password reset mail not queued", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) resetURL(raw string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(raw)
}

// ResetPassword consumes a reset token.  Unknown, used and expired tokens
// are reported alike.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if err := validate.Check(validation.Errors{
		"token":       validation.Validate(token, validation.Required.Error("Reset token is required")),
		"newPassword": validation.Validate(newPassword, validation.Required.Error("New password is required"), validate.StrongPassword),
	}.Filter()); err != nil {
		return err
	}

	hash := utils.HashToken(token)
	userID, err := s.tokens.Validate(ctx, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation(invalidResetToken)
	}
	if err != nil {
		return apperr.Unexpected(err)
	}
	// Claim the token before touching the password so a replayed token
	// cannot set it twice.
	err = s.tokens.MarkUsed(ctx, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation(invalidResetToken)
	}
	if err != nil {
		return apperr.Unexpected(err)
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	s.log.Info("password reset", zap.Uint64("user_id", userID))
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	if err := validate.Check(validation.Errors{
		"currentPassword": validation.Validate(current, validation.Required.Error("Current password is required")),
		"newPassword":     validation.Validate(newPassword, validation.Required.Error("New password is required"), validate.StrongPassword),
	}.Filter()); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fail(err, "User not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return apperr.Unauthorized("Current password is incorrect")
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID uint64, plain string) error {
	hash, err := utils.HashPassword(plain, s.cfg.BcryptCost)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fail(err, "User not found")
	}
	return nil
}
