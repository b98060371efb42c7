package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/metrics"
)

const maxAITextRunes = 4000

// Assistant answers questions about scripture.
type Assistant interface {
    Explain(ctx context.Context, text, source string) (string, error)
    Ask(ctx context.Context, question, scriptureText string) (string, error)
}

// AIHandler proxies explanation and Q&A requests to the AI provider.
type AIHandler struct {
    AI  Assistant
    Log logger.Logger
}

type explainReq struct {
    Text    string `json:"text"`
    Context string `json:"context"`
}

type askReq struct {
    Question      string `json:"question"`
    ScriptureText string `json:"scripture_text"`
}

// Explain handles POST /v1/ai/explain.
func (h *AIHandler) Explain(c echo.Context) error {
    var req explainReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
    }
    if len([]rune(req.Text)) > maxAITextRunes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "text too long"})
    }
    answer, err := h.AI.Explain(c.Request().Context(), req.Text, req.Context)
    if err != nil {
        return h.providerError(c, "ai explain failed", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"answer": answer})
}

// Ask handles POST /v1/ai/ask.
func (h *AIHandler) Ask(c echo.Context) error {
    var req askReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Question) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "question is required"})
    }
    if len([]rune(req.Question))+len([]rune(req.ScriptureText)) > maxAITextRunes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "question too long"})
    }
    answer, err := h.AI.Ask(c.Request().Context(), req.Question, req.ScriptureText)
    if err != nil {
        return h.providerError(c, "ai ask failed", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"answer": answer})
}

func (h *AIHandler) providerError(c echo.Context, msg string, err error) error {
    metrics.ProviderErrors.WithLabelValues(metrics.ProviderAI).Inc()
    h.Log.WithError(err).Error(msg, nil)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}
