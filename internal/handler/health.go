package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health is used by load balancers.  With a database configured it also
// checks connectivity and answers 503 when the ping fails.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": "database unreachable"})
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}

// Root describes the running service.
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"app": "ZenPod", "version": Version, "status": "running"})
}
