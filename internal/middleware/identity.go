package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
    ctxSubject = "subject"
    ctxRole    = "role"
)

// Subject returns the authenticated token subject, or "anon" when the
// request carries no verified token.
func Subject(c echo.Context) string {
    if s, ok := c.Get(ctxSubject).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Role returns the verified role claim or "".
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}
