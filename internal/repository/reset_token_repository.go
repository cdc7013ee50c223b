package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ResetTokenRepo persists password reset tokens.  Only the SHA-256 hash of
// a token is stored.
type ResetTokenRepo struct{ db Querier }

func NewResetTokenRepo(db Querier) *ResetTokenRepo { return &ResetTokenRepo{db: db} }

// Store invalidates the user's earlier unused tokens and saves a new one.
func (r *ResetTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at = UTC_TIMESTAMP() WHERE user_id = ? AND used_at IS NULL",
		userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, tokenHash, exp.UTC())
	return err
}

// Validate returns the owner of an unused, unexpired token.  Unknown, used
// and expired tokens all yield ErrNotFound.
func (r *ResetTokenRepo) Validate(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM password_reset_tokens WHERE token_hash = ? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if usedAt.Valid || now.UTC().After(expiresAt) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// MarkUsed consumes a token.  The update only matches an unused, unexpired
// row, so of two requests racing on one token exactly one gets a nil error;
// the other gets ErrNotFound.
func (r *ResetTokenRepo) MarkUsed(ctx context.Context, tokenHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at = UTC_TIMESTAMP() WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?",
		tokenHash, now.UTC())
	if err != nil {
		return err
	}
	return requireAffected(res)
}
