package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole answers 403 unless JWTAuth stored one of roles in the
// context.  It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// ActivationGuard protects forced session activation.  With demo
// activation allowed the route is open; otherwise it requires an ADMIN
// access token.
func ActivationGuard(demoAllowed bool, secret string, adminRole string) echo.MiddlewareFunc {
    if demoAllowed {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    auth := JWTAuth(secret)
    role := RequireRole(adminRole)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return auth(role(next))
    }
}
