package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/config"
    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/utils"
)

// adminSubject is the subject of every admin access token.
const adminSubject = "admin"

// AdminHandler issues admin access tokens.
type AdminHandler struct {
    Cfg config.Config
    Log logger.Logger
}

type adminLoginReq struct {
    Password string `json:"password"`
}

type adminLoginResp struct {
    Token   string    `json:"token"`
    Role    string    `json:"role"`
    Expires time.Time `json:"expires"`
}

// Login handles POST /v1/admin/login.  The endpoint does not exist unless
// ADMIN_PASSWORD_HASH is configured.
func (h *AdminHandler) Login(c echo.Context) error {
    if h.Cfg.AdminPassHash == "" {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    var req adminLoginReq
    if err := c.Bind(&req); err != nil || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
    }
    if !utils.VerifyPassword(h.Cfg.AdminPassHash, req.Password) {
        h.Log.Warn("admin login rejected", map[string]interface{}{"remote_ip": c.RealIP()})
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, adminSubject, utils.RoleAdmin, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
    }
    return c.JSON(http.StatusOK, adminLoginResp{Token: tok.Token, Role: utils.RoleAdmin, Expires: tok.Exp})
}
