package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/payment"
    "github.com/iliyamo/zenpod/internal/repository"
    "github.com/iliyamo/zenpod/internal/service"
)

// defaultDurationHours applies when a create request omits duration_hours.
const defaultDurationHours = 1.0

// SessionHandler serves the access session endpoints.
type SessionHandler struct {
    Sessions *service.SessionService
    Log      logger.Logger
}

// NewSessionHandler returns a SessionHandler.
func NewSessionHandler(s *service.SessionService, log logger.Logger) *SessionHandler {
    return &SessionHandler{Sessions: s, Log: log}
}

type createSessionReq struct {
    DurationHours *float64 `json:"duration_hours"`
    UserToken     string   `json:"user_token"`
}

type createSessionResp struct {
    SessionID  uint64  `json:"session_id"`
    OutTradeNo string  `json:"out_trade_no"`
    CodeURL    string  `json:"code_url"`
    AmountYuan float64 `json:"amount_yuan"`
    Demo       bool    `json:"demo"`
    IsActive   bool    `json:"is_active"`
}

type sessionStatusResp struct {
    IsActive           bool       `json:"is_active"`
    IsPaid             bool       `json:"is_paid"`
    RemainingSeconds   *float64   `json:"remaining_seconds,omitempty"`
    EndTime            *time.Time `json:"end_time,omitempty"`
    GatewayUnavailable bool       `json:"gateway_unavailable,omitempty"`
    RetryAfterSeconds  int        `json:"retry_after_seconds,omitempty"`
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
    var req createSessionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    d := defaultDurationHours
    if req.DurationHours != nil {
        d = *req.DurationHours
    }

    out, err := h.Sessions.RequestSession(c.Request().Context(), d, req.UserToken)
    switch {
    case errors.Is(err, service.ErrInvalidDuration):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_hours must be > 0 and within the allowed maximum"})
    case errors.Is(err, payment.ErrGatewayUnavailable):
        h.Log.WithError(err).Warn("order creation failed", nil)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
    case err != nil:
        h.Log.WithError(err).Error("create session failed", nil)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }

    return c.JSON(http.StatusCreated, createSessionResp{
        SessionID:  out.SessionID,
        OutTradeNo: out.OrderRef,
        CodeURL:    out.PayToken,
        AmountYuan: float64(out.AmountMinor) / 100,
        Demo:       out.Simulated,
        IsActive:   out.IsActive,
    })
}

// Status handles GET /v1/sessions/:id/status.
func (h *SessionHandler) Status(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    st, err := h.Sessions.GetStatus(c.Request().Context(), id)
    if errors.Is(err, repository.ErrSessionNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    if err != nil {
        h.Log.WithError(err).Error("session status failed", map[string]interface{}{"session_id": id})
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, sessionStatusResp{
        IsActive:           st.IsActive,
        IsPaid:             st.IsPaid,
        RemainingSeconds:   st.RemainingSeconds,
        EndTime:            st.EndTime,
        GatewayUnavailable: st.GatewayUnavailable,
        RetryAfterSeconds:  st.RetryAfterSeconds,
    })
}

// Activate handles POST /v1/sessions/:id/activate.  The router guards it
// outside demo environments.
func (h *SessionHandler) Activate(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    _, err = h.Sessions.ForceActivate(c.Request().Context(), id)
    switch {
    case errors.Is(err, repository.ErrSessionNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrSessionEnded):
        return c.JSON(http.StatusConflict, echo.Map{"error": "session has ended"})
    case err != nil:
        h.Log.WithError(err).Error("force activation failed", map[string]interface{}{"session_id": id})
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "is_active": true})
}
