package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/zenpod/internal/config"
    "github.com/iliyamo/zenpod/internal/logger"
)

// cachedResponse is the Redis value for one cached response.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// captureWriter copies the response body while forwarding it to the
// client.  Bodies over limit are marked overflowed and not cached.
type captureWriter struct {
    http.ResponseWriter
    status     int
    buf        bytes.Buffer
    limit      int
    overflowed bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflowed {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflowed = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey builds a stable key from the configured strategy.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", r.URL.Path}
    case "method_route":
        parts = []string{"method", r.Method, "route", r.URL.Path}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", r.URL.Path, "q", r.URL.RawQuery}
    default:
        parts = []string{"route", r.URL.Path, "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache caches successful responses of the configured methods in
// Redis, keyed by request path.  A nil client or disabled config yields a
// pass-through middleware.  Redis errors are logged and never fail the
// request.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log logger.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            raw, err := rdb.Get(ctx, key).Bytes()
            switch {
            case err == nil:
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    return writeCached(c, hit)
                }
            case err != redis.Nil:
                log.WithError(err).Warn("cache lookup failed", map[string]interface{}{"key": key})
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflowed {
                return nil
            }

            entry := cachedResponse{Status: cw.status, Header: c.Response().Header().Clone(), Body: cw.buf.Bytes()}
            entry.Header.Del("X-Cache")
            entry.Header.Del(echo.HeaderContentLength)
            payload, err := json.Marshal(entry)
            if err != nil {
                return nil
            }
            if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
                log.WithError(err).Warn("cache store failed", map[string]interface{}{"key": key})
            }
            return nil
        }
    }
}

func writeCached(c echo.Context, hit cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range hit.Header {
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    _, err := c.Response().Write(hit.Body)
    return err
}
