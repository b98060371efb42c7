package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zenpod/internal/handler"
)

// RegisterProviders registers the AI and TTS proxies.  Both call paid
// external providers, so limit applies to every route.
func RegisterProviders(e *echo.Echo, ai *handler.AIHandler, speech *handler.TTSHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.POST("/ai/explain", ai.Explain, limit)
	g.POST("/ai/ask", ai.Ask, limit)
	g.POST("/tts", speech.Speak, limit)
	g.POST("/tts/", speech.Speak, limit)
}
