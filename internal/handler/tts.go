package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/metrics"
    "github.com/iliyamo/zenpod/internal/tts"
)

const maxTTSTextRunes = 3000

// Speaker turns text into base64 encoded audio.
type Speaker interface {
    SynthesizeBase64(ctx context.Context, text, voiceKey, rate string) (string, error)
}

// TTSHandler serves POST /v1/tts.
type TTSHandler struct {
    TTS Speaker
    Log logger.Logger
}

type ttsReq struct {
    Text  string `json:"text"`
    Voice string `json:"voice"`
    Rate  string `json:"rate"`
}

// Speak synthesizes the requested text.
func (h *TTSHandler) Speak(c echo.Context) error {
    var req ttsReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
    }
    if len([]rune(req.Text)) > maxTTSTextRunes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "text too long"})
    }
    if req.Voice == "" {
        req.Voice = tts.DefaultVoice
    }
    audio, err := h.TTS.SynthesizeBase64(c.Request().Context(), req.Text, req.Voice, req.Rate)
    if err != nil {
        metrics.ProviderErrors.WithLabelValues(metrics.ProviderTTS).Inc()
        h.Log.WithError(err).Error("tts failed", map[string]interface{}{"voice": req.Voice})
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{"audio_base64": audio, "format": tts.Format})
}
