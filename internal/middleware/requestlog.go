package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/zenpod/internal/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogURI:       true,
        LogMethod:    true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            fields := map[string]interface{}{
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency_ms": v.Latency.Milliseconds(),
                "remote_ip":  v.RemoteIP,
            }
            if v.RequestID != "" {
                fields["request_id"] = v.RequestID
            }
            switch {
            case v.Error != nil:
                log.WithError(v.Error).Error("request failed", fields)
            case v.Status >= 500:
                log.Error("request", fields)
            default:
                log.Info("request", fields)
            }
            return nil
        },
    })
}
