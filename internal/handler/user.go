package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"
    "unicode/utf8"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/config"
    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/model"
    "github.com/iliyamo/zenpod/internal/repository"
    "github.com/iliyamo/zenpod/internal/utils"
)

const maxNicknameRunes = 64

// UserHandler bundles dependencies for the token identity and reading
// progress endpoints.
type UserHandler struct {
    Cfg        config.Config
    Users      *repository.UserRepo
    Progress   *repository.ProgressRepo
    Scriptures *repository.ScriptureRepo
    Log        logger.Logger
}

type createUserReq struct {
    Nickname string `json:"nickname"`
}

type createUserResp struct {
    ID       uint64 `json:"id"`
    Token    string `json:"token"`
    Nickname string `json:"nickname"`
    QRBase64 string `json:"qr_base64"`
}

type userResp struct {
    ID           uint64    `json:"id"`
    Token        string    `json:"token"`
    Nickname     string    `json:"nickname"`
    CreatedAt    time.Time `json:"created_at"`
    LastVisit    time.Time `json:"last_visit"`
    TotalMinutes int64     `json:"total_minutes"`
}

type saveProgressReq struct {
    ScriptureID    uint64  `json:"scripture_id"`
    ChapterID      *uint64 `json:"chapter_id"`
    ScrollPosition float64 `json:"scroll_position"`
}

// Create handles POST /v1/users.  It issues a new identity token and the
// QR code that carries it.
func (h *UserHandler) Create(c echo.Context) error {
    var req createUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    nickname := strings.TrimSpace(req.Nickname)
    if nickname == "" {
        nickname = utils.DefaultNickname
    }
    if utf8.RuneCountInString(nickname) > maxNicknameRunes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname too long"})
    }

    token, err := utils.NewUserToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
    }
    u, err := h.Users.Create(c.Request().Context(), token, nickname)
    if err != nil {
        h.Log.WithError(err).Error("create user failed", nil)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    qr, err := utils.UserQRCode(h.Cfg.PublicBaseURL, u.Token)
    if err != nil {
        h.Log.WithError(err).Error("render user qr failed", map[string]interface{}{"user_id": u.ID})
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not render qr code"})
    }
    return c.JSON(http.StatusCreated, createUserResp{ID: u.ID, Token: u.Token, Nickname: u.Nickname, QRBase64: qr})
}

// resolve looks up the :token path parameter, writing the error response
// itself when the user cannot be returned.
func (h *UserHandler) resolve(c echo.Context) (*model.User, error) {
    u, err := h.Users.ResolveToken(c.Request().Context(), c.Param("token"))
    if errors.Is(err, repository.ErrUserNotFound) {
        return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    if err != nil {
        h.Log.WithError(err).Error("resolve user token failed", nil)
        return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return u, nil
}

// Get handles GET /v1/users/token/:token.
func (h *UserHandler) Get(c echo.Context) error {
    u, err := h.resolve(c)
    if u == nil {
        return err
    }
    return c.JSON(http.StatusOK, userResp{
        ID: u.ID, Token: u.Token, Nickname: u.Nickname,
        CreatedAt: u.CreatedAt, LastVisit: u.LastVisit, TotalMinutes: u.TotalMinutes,
    })
}

// GetProgress handles GET /v1/users/token/:token/progress.
func (h *UserHandler) GetProgress(c echo.Context) error {
    u, err := h.resolve(c)
    if u == nil {
        return err
    }
    items, err := h.Progress.ListByUser(c.Request().Context(), u.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, items)
}

// SaveProgress handles POST /v1/users/token/:token/progress.
func (h *UserHandler) SaveProgress(c echo.Context) error {
    var req saveProgressReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.ScriptureID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "scripture_id is required"})
    }
    if req.ScrollPosition < 0 || req.ScrollPosition > 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "scroll_position must be between 0 and 1"})
    }

    u, err := h.resolve(c)
    if u == nil {
        return err
    }
    ctx := c.Request().Context()
    if req.ChapterID != nil {
        _, err = h.Scriptures.GetChapter(ctx, req.ScriptureID, *req.ChapterID)
    } else {
        _, err = h.Scriptures.GetByID(ctx, req.ScriptureID)
    }
    switch {
    case errors.Is(err, repository.ErrScriptureNotFound), errors.Is(err, repository.ErrChapterNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    err = h.Progress.Upsert(ctx, model.ReadingProgress{
        UserID:         u.ID,
        ScriptureID:    req.ScriptureID,
        ChapterID:      req.ChapterID,
        ScrollPosition: req.ScrollPosition,
    })
    if err != nil {
        h.Log.WithError(err).Error("save progress failed", map[string]interface{}{"user_id": u.ID})
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
