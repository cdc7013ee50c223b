package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/queue"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/utils"
)

const secret = "test-secret"

type memUsers struct{ rows map[uint64]*model.User }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.rows[id].PasswordHash = hash
	return nil
}

func (m *memUsers) TouchLogin(_ context.Context, id uint64, at time.Time) error {
	m.rows[id].LastLoginAt = &at
	return nil
}

type resetRow struct {
	userID uint64
	exp    time.Time
	used   bool
}

type memTokens struct{ rows map[string]*resetRow }

func (m *memTokens) Store(_ context.Context, userID uint64, hash string, exp time.Time) error {
	for _, r := range m.rows {
		if r.userID == userID {
			r.used = true
		}
	}
	m.rows[hash] = &resetRow{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) Validate(_ context.Context, hash string, now time.Time) (uint64, error) {
	r, ok := m.rows[hash]
	if !ok || r.used || now.After(r.exp) {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (m *memTokens) MarkUsed(_ context.Context, hash string, now time.Time) error {
	r, ok := m.rows[hash]
	if !ok || r.used || !now.Before(r.exp) {
		return repository.ErrNotFound
	}
	r.used = true
	return nil
}

// staleTokens answers Validate from a snapshot taken before any reset ran,
// the view a second request has when it races the first.
type staleTokens struct{ *memTokens }

func (s staleTokens) Validate(_ context.Context, hash string, _ time.Time) (uint64, error) {
	r, ok := s.rows[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memUsers, *capturePublisher) {
	t.Helper()
	hash, err := utils.HashPassword("Secret@123", bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{rows: map[uint64]*model.User{
		1: {ID: 1, Email: "admin@cowork.in", Name: "Admin", Role: model.RoleSuperAdmin, IsActive: true, PasswordHash: hash},
		2: {ID: 2, Email: "off@cowork.in", Name: "Off", Role: model.RoleAdmin, IsActive: false, PasswordHash: hash},
	}}
	pub := &capturePublisher{}
	svc := NewAuthService(users, &memTokens{rows: map[string]*resetRow{}}, pub, AuthConfig{
		JWTSecret:    secret,
		AccessTTLMin: 60,
		BcryptCost:   bcrypt.MinCost,
		FrontendURL:  "https://admin.cowork.in/",
	}, zap.NewNop())
	svc.now = func() time.Time { return time.Now() }
	return svc, users, pub
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), " ADMIN@cowork.in ", "Secret@123")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.User.ID)
	assert.NotNil(t, users.rows[1].LastLoginAt)

	claims, err := svc.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)
	assert.Equal(t, model.RoleSuperAdmin, claims.Role)

	_, err = svc.Verify(res.Token + "x")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin@cowork.in", "wrong")
	assert.EqualError(t, err, "Invalid email or password")
	_, err = svc.Login(ctx, "ghost@cowork.in", "Secret@123")
	assert.EqualError(t, err, "Invalid email or password")
	_, err = svc.Login(ctx, "off@cowork.in", "Secret@123")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = svc.Login(ctx, "not-an-email", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, pub := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@cowork.in"))
	assert.Empty(t, pub.events)

	require.NoError(t, svc.RequestPasswordReset(ctx, "admin@cowork.in"))
	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, queue.EventPasswordResetRequested, ev.Type)
	assert.Equal(t, "admin@cowork.in", ev.Reset.To)
	require.True(t, strings.HasPrefix(ev.Reset.ResetURL, "https://admin.cowork.in/reset-password?token="))

	u, err := url.Parse(ev.Reset.ResetURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.Len(t, token, 64)

	err = svc.ResetPassword(ctx, token, "weak")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.ResetPassword(ctx, token, "N3w@Password"))
	_, err = svc.Login(ctx, "admin@cowork.in", "N3w@Password")
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, token, "An0ther@Pass")
	assert.EqualError(t, err, "Invalid or expired reset token")
}

func TestPasswordResetTokenExpires(t *testing.T) {
	svc, _, pub := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestPasswordReset(ctx, "admin@cowork.in"))
	u, _ := url.Parse(pub.events[0].Reset.ResetURL)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err := svc.ResetPassword(ctx, u.Query().Get("token"), "N3w@Password")
	assert.EqualError(t, err, "Invalid or expired reset token")
}

func TestPasswordResetTokenSetsPasswordOnce(t *testing.T) {
	svc, _, pub := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestPasswordReset(ctx, "admin@cowork.in"))
	u, _ := url.Parse(pub.events[0].Reset.ResetURL)
	token := u.Query().Get("token")

	svc.tokens = staleTokens{svc.tokens.(*memTokens)}

	require.NoError(t, svc.ResetPassword(ctx, token, "F1rst@Password"))
	err := svc.ResetPassword(ctx, token, "S3cond@Password")
	assert.EqualError(t, err, "Invalid or expired reset token")

	_, err = svc.Login(ctx, "admin@cowork.in", "F1rst@Password")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "admin@cowork.in", "S3cond@Password")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, 1, "nope", "N3w@Password")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, 1, "Secret@123", "N3w@Password"))
	_, err = svc.Login(ctx, "admin@cowork.in", "N3w@Password")
	assert.NoError(t, err)

	_, err = svc.Me(ctx, 99)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
