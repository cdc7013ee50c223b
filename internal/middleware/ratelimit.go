package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/config"
)

const rateLimitMessage = "Too many requests, please try again later."

// takeToken refills the bucket at KEYS[1] by whole intervals and spends one
// token.  ARGV: now_ms, capacity, refill, interval_ms, ttl_ms.
// Reply: {allowed 0|1, tokens left, ms until the next refill when denied}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local left, ts = tonumber(b[1]), tonumber(b[2])
if not left or not ts then
	left, ts = cap, now
end

local steps = math.floor(math.max(0, now - ts) / every)
if steps > 0 then
	left = math.min(cap, left + steps * refill)
	ts = ts + steps * every
end

local ok, wait = 0, 0
if left >= 1 then
	ok, left = 1, left - 1
else
	wait = math.max(0, every - (now - ts))
end

redis.call('HSET', KEYS[1], 'tokens', left, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl)
return {ok, left, wait}
`)

type bucketReply struct {
	allowed   bool
	remaining int64
	waitMs    int64
}

func parseBucketReply(v interface{}) (bucketReply, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketReply{}, false
	}
	var n [3]int64
	for i, x := range arr {
		if n[i], ok = x.(int64); !ok {
			return bucketReply{}, false
		}
	}
	return bucketReply{allowed: n[0] == 1, remaining: n[1], waitMs: n[2]}, true
}

// retryAfter rounds a wait in milliseconds up to whole seconds.
func retryAfter(ms int64) string {
	if ms <= 0 {
		return "0"
	}
	return strconv.FormatInt((ms+999)/1000, 10)
}

// NewTokenBucket limits requests with a Redis token bucket shared by every
// instance.  Without Redis, or when disabled, it passes everything through.
// A Redis failure lets the request in and logs a warning.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Scripter, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || isNilScripter(rdb) {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			raw, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), cfg.TTL.Milliseconds()).Result()
			if err != nil {
				log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			r, ok := parseBucketReply(raw)
			if !ok {
				log.Warn("unexpected rate limit reply", zap.String("key", key), zap.Any("reply", raw))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(r.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if r.allowed {
				return next(c)
			}

			h.Set(echo.HeaderRetryAfter, retryAfter(r.waitMs))
			log.Debug("rate limited", zap.String("key", key), zap.Int64("wait_ms", r.waitMs))
			return echo.NewHTTPError(http.StatusTooManyRequests, rateLimitMessage)
		}
	}
}

// rateDimensions lists, per key strategy, which request attributes make up
// the bucket key.  Unknown strategies use all three.
var rateDimensions = map[string][]string{
	"ip":         {"ip"},
	"user":       {"user"},
	"route":      {"route"},
	"ip_user":    {"ip", "user"},
	"ip_route":   {"ip", "route"},
	"user_route": {"user", "route"},
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	dims, ok := rateDimensions[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		dims = []string{"ip", "user", "route"}
	}
	var b strings.Builder
	b.WriteString(cfg.Prefix)
	for _, d := range dims {
		var v string
		switch d {
		case "ip":
			if v = c.RealIP(); v == "" {
				v = "unknown"
			}
		case "user":
			v = userKey(c)
		case "route":
			v = c.Request().Method + " " + c.Path()
		}
		b.WriteString(":" + d + ":" + v)
	}
	return b.String()
}

func isNilScripter(s redis.Scripter) bool {
	if s == nil {
		return true
	}
	c, ok := s.(*redis.Client)
	return ok && c == nil
}
