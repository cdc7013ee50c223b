package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/config"
)

const headerXCache = "X-Cache"

// cacheEntry is what a cached response is stored as.  Only the content type
// is kept from the headers; everything else is per-request.
type cacheEntry struct {
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// teeWriter forwards the response and keeps a copy of the body until it
// grows past limit.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKey is <prefix>:<path>, plus "?<query>" with the parameters sorted so
// ?a=1&b=2 and ?b=2&a=1 share an entry.
func cacheKey(prefix string, r *http.Request) string {
	key := prefix + ":" + r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	return key
}

// NewRedisCache serves repeated GETs from Redis.  Only 200 responses are
// stored.  Passthrough when caching is disabled or Redis is absent.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return cacheWith(cfg, rdb, log)
}

func cacheWith(cfg config.CacheConfig, rdb redis.Cmdable, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			ctx := req.Context()
			key := cacheKey(cfg.Prefix, req)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cacheEntry
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set(headerXCache, "HIT")
					return c.Blob(http.StatusOK, hit.ContentType, hit.Body)
				}
				log.Warn("dropping unreadable cache entry", zap.String("key", key))
			} else if !errors.Is(err, redis.Nil) {
				log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set(headerXCache, "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}

			raw, err := json.Marshal(cacheEntry{
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        tw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, raw, cfg.TTL).Err(); err != nil {
				log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// CachePurger deletes every cached response under one prefix.
type CachePurger struct {
	rdb    redis.Cmdable
	prefix string
}

// NewCachePurger returns nil when there is no Redis client, which the
// location service treats as "nothing to purge".
func NewCachePurger(cfg config.CacheConfig, rdb *redis.Client) *CachePurger {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	return &CachePurger{rdb: rdb, prefix: cfg.Prefix}
}

func (p *CachePurger) Purge(ctx context.Context) error {
	if p == nil {
		return nil
	}
	iter := p.rdb.Scan(ctx, 0, p.prefix+":*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := p.rdb.Unlink(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return p.rdb.Unlink(ctx, batch...).Err()
	}
	return nil
}
