package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/config"
	"github.com/coworkdir/admin-api/internal/utils"
)

const testSecret = "test-secret"

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "expected *apperr.Error, got %v", err)
	return ae.Kind
}

func run(mw echo.MiddlewareFunc, req *http.Request, h echo.HandlerFunc) (echo.Context, error) {
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	return c, mw(h)(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestJWTAuth(t *testing.T) {
	mw := JWTAuth(Secret(testSecret))

	t.Run("missing header", func(t *testing.T) {
		_, err := run(mw, httptest.NewRequest(http.MethodGet, "/", nil), ok)
		assert.Equal(t, apperr.KindUnauthorized, kindOf(t, err))
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
		_, err := run(mw, req, ok)
		assert.Equal(t, apperr.KindUnauthorized, kindOf(t, err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other", 7, "a@b.co", "admin", 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		_, err = run(mw, req, ok)
		assert.Equal(t, apperr.KindUnauthorized, kindOf(t, err))
	})

	t.Run("valid", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, 7, "a@b.co", "admin", 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		c, err := run(mw, req, ok)
		require.NoError(t, err)

		id, found := UserID(c)
		assert.True(t, found)
		assert.Equal(t, uint64(7), id)
		assert.Equal(t, "admin", Role(c))
		assert.Equal(t, "a@b.co", Email(c))
	})
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("super_admin")
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.Set(ctxRole, "admin")
	assert.Equal(t, apperr.KindForbidden, kindOf(t, mw(ok)(c)))

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.Set(ctxRole, "super_admin")
	assert.NoError(t, mw(ok)(c))
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = RequestIDOf(c)
		return c.NoContent(http.StatusOK)
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = serve(e, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestAccessLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestID(), AccessLog(zap.New(core)))
	e.GET("/ok", ok)
	e.GET("/missing", func(echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") })
	e.GET("/boom", func(echo.Context) error { return errors.New("boom") })

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil)).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil)).Code)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "/missing", fields["route"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

// scriptStub answers EVALSHA with a canned limiter reply.
type scriptStub struct {
	redis.Scripter
	reply []interface{}
	err   error
}

func (s scriptStub) EvalSha(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	cmd.SetVal(s.reply)
	return cmd
}

func (s scriptStub) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.EvalSha(ctx, "", keys, args...)
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            15 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:auth",
	}
}

func TestTokenBucketPassesThroughWithoutRedis(t *testing.T) {
	var nilClient *redis.Client
	mw := NewTokenBucket(rateConfig(), nilClient, zap.NewNop())
	_, err := run(mw, httptest.NewRequest(http.MethodPost, "/", nil), ok)
	assert.NoError(t, err)
}

func TestTokenBucketAllows(t *testing.T) {
	mw := NewTokenBucket(rateConfig(), scriptStub{reply: []interface{}{int64(1), int64(4), int64(0)}}, zap.NewNop())
	c, err := run(mw, httptest.NewRequest(http.MethodPost, "/", nil), ok)
	require.NoError(t, err)
	assert.Equal(t, "5", c.Response().Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", c.Response().Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketBlocks(t *testing.T) {
	mw := NewTokenBucket(rateConfig(), scriptStub{reply: []interface{}{int64(0), int64(0), int64(1500)}}, zap.NewNop())
	c, err := run(mw, httptest.NewRequest(http.MethodPost, "/", nil), ok)

	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	assert.Equal(t, rateLimitMessage, he.Message)
	assert.Equal(t, "2", c.Response().Header().Get("Retry-After"))
}

func TestTokenBucketIgnoresMalformedReply(t *testing.T) {
	mw := NewTokenBucket(rateConfig(), scriptStub{reply: []interface{}{"1", int64(0)}}, zap.NewNop())
	_, err := run(mw, httptest.NewRequest(http.MethodPost, "/", nil), ok)
	assert.NoError(t, err)
}

func TestRetryAfterRoundsUp(t *testing.T) {
	assert.Equal(t, "0", retryAfter(-5))
	assert.Equal(t, "1", retryAfter(1))
	assert.Equal(t, "1", retryAfter(1000))
	assert.Equal(t, "2", retryAfter(1001))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mw := NewTokenBucket(rateConfig(), scriptStub{err: errors.New("connection refused")}, zap.NewNop())
	_, err := run(mw, httptest.NewRequest(http.MethodPost, "/", nil), ok)
	assert.NoError(t, err)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/auth/login")

	cfg := rateConfig()
	assert.Equal(t, "rl:auth:ip:10.0.0.9:route:POST /api/v1/auth/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:auth:user:anon", buildRateKey(cfg, c))
	c.Set(ctxUserID, uint64(42))
	assert.Equal(t, "rl:auth:user:42", buildRateKey(cfg, c))
}

func TestCacheKeyIncludesPathAndSortedQuery(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/v1/locations/1", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/v1/locations/2", nil)
	assert.Equal(t, "cache:locations:/api/v1/locations/1", cacheKey("cache:locations", a))
	assert.NotEqual(t, cacheKey("cache:locations", a), cacheKey("cache:locations", b))

	x := httptest.NewRequest(http.MethodGet, "/api/v1/locations?b=2&active=true", nil)
	y := httptest.NewRequest(http.MethodGet, "/api/v1/locations?active=true&b=2", nil)
	assert.Equal(t, cacheKey("p", x), cacheKey("p", y))
	assert.Equal(t, "p:/api/v1/locations?active=true&b=2", cacheKey("p", x))
}

// memRedis keeps GET/SET in a map.
type memRedis struct {
	redis.Cmdable
	vals map[string]string
	ttl  map[string]time.Duration
}

func (m *memRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	m.vals[key] = string(value.([]byte))
	m.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func TestCacheMissThenHit(t *testing.T) {
	e := echo.New()
	store := &memRedis{vals: map[string]string{}, ttl: map[string]time.Duration{}}
	mw := cacheWith(config.CacheConfig{Prefix: "cache:locations", TTL: time.Minute}, store, zap.NewNop())

	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"n": calls})
	})
	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil), rec)))
		return rec
	}

	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, time.Minute, store.ttl["cache:locations:/api/v1/locations"])

	second := get()
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
}

func TestCacheSkipsErrorsAndOversizedBodies(t *testing.T) {
	e := echo.New()
	store := &memRedis{vals: map[string]string{}, ttl: map[string]time.Duration{}}
	mw := cacheWith(config.CacheConfig{Prefix: "c", TTL: time.Minute, MaxBodyBytes: 8}, store, zap.NewNop())

	notFound := mw(func(c echo.Context) error { return c.String(http.StatusNotFound, "no") })
	require.NoError(t, notFound(e.NewContext(httptest.NewRequest(http.MethodGet, "/a", nil), httptest.NewRecorder())))

	big := mw(func(c echo.Context) error { return c.String(http.StatusOK, "0123456789abcdef") })
	rec := httptest.NewRecorder()
	require.NoError(t, big(e.NewContext(httptest.NewRequest(http.MethodGet, "/b", nil), rec)))
	assert.Equal(t, "0123456789abcdef", rec.Body.String())

	assert.Empty(t, store.vals)
}

func TestCacheWithoutRedis(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true}, nil, zap.NewNop())
	_, err := run(mw, httptest.NewRequest(http.MethodGet, "/", nil), ok)
	assert.NoError(t, err)

	var p *CachePurger
	assert.NoError(t, p.Purge(context.Background()))
	assert.Nil(t, NewCachePurger(config.CacheConfig{Enabled: true}, nil))
}
