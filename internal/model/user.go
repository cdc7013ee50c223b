package model

import "time"

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is an admin account in the `users` table.  Only the bcrypt hash of
// the password is stored.
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email (unique, lower-cased)
	PasswordHash string     // users.password_hash
	Name         string     // users.name
	Role         string     // users.role
	IsActive     bool       // users.is_active
	LastLoginAt  *time.Time // users.last_login_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// PasswordResetToken models a row of `password_reset_tokens`.  The raw
// token is mailed to the user; only its SHA-256 hex digest is kept.
type PasswordResetToken struct {
	ID        uint64     // password_reset_tokens.id
	UserID    uint64     // password_reset_tokens.user_id
	TokenHash string     // password_reset_tokens.token_hash
	ExpiresAt time.Time  // password_reset_tokens.expires_at
	UsedAt    *time.Time // password_reset_tokens.used_at (nullable)
	CreatedAt time.Time  // password_reset_tokens.created_at
}
