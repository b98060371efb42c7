package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/zenpod/internal/handler"
)

// RegisterRoutes registers the operational endpoints: health check,
// service description and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterScriptures registers the read-only catalog.  cache fronts every
// catalog route.
func RegisterScriptures(e *echo.Echo, h *handler.ScriptureHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/scriptures")
	g.GET("", h.List, cache)
	g.GET("/", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.GET("/:id/chapters/:chapterId", h.Chapter, cache)
}

// RegisterUsers registers token identity and reading progress routes.
// Tokens are bearer secrets carried in the path; no JWT is involved.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	g := e.Group("/v1/users")
	g.POST("", h.Create)
	g.POST("/", h.Create)
	g.GET("/token/:token", h.Get)
	g.GET("/token/:token/progress", h.GetProgress)
	g.POST("/token/:token/progress", h.SaveProgress)
}

// RegisterAdmin registers the admin login.  limit throttles password
// guessing.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/admin/login", h.Login, limit)
}
