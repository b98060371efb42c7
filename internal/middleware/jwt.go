package middleware // reusable HTTP middleware for the Echo server

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its subject and role
// in the request context (see Subject and Role).  Requests without a
// valid token are answered with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(ctxSubject, claims.Subject)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}
