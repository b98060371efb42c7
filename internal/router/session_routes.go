package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zenpod/internal/handler"
)

// RegisterSessions registers the access session endpoints.  limit applies
// to session creation; activation is wrapped in guard, which is open only
// in demo environments and requires an ADMIN token otherwise.
func RegisterSessions(e *echo.Echo, h *handler.SessionHandler, limit, guard echo.MiddlewareFunc) {
	g := e.Group("/v1/sessions")
	g.POST("", h.Create, limit)
	g.POST("/", h.Create, limit)
	g.GET("/:id/status", h.Status)
	g.POST("/:id/activate", h.Activate, guard)
}
