package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/coworkdir/admin-api/internal/model"
)

const userCols = "id, email, password_hash, name, role, is_active, last_login_at, created_at, updated_at"

type UserRepo struct{ db Querier }

func NewUserRepo(db Querier) *UserRepo { return &UserRepo{db: db} }

// Create inserts an admin with an already hashed password.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role, is_active) VALUES (?, ?, ?, ?, ?)",
		u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email = ?", normalizeEmail(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Promote makes an existing account an active super admin, optionally with
// a new password hash (empty keeps the current one).
func (r *UserRepo) Promote(ctx context.Context, id uint64, hash string) error {
	q := "UPDATE users SET role = ?, is_active = 1"
	args := []any{model.RoleSuperAdmin}
	if hash != "" {
		q += ", password_hash = ?"
		args = append(args, hash)
	}
	_, err := r.db.ExecContext(ctx, q+" WHERE id = ?", append(args, id)...)
	return err
}

func (r *UserRepo) TouchLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", at.UTC(), id)
	return err
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
