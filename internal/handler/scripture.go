package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/zenpod/internal/model"
    "github.com/iliyamo/zenpod/internal/repository"
)

// ScriptureHandler serves the read-only catalog.
type ScriptureHandler struct {
    Scriptures *repository.ScriptureRepo
}

type scriptureItem struct {
    ID            uint64  `json:"id"`
    Title         string  `json:"title"`
    Category      string  `json:"category"`
    Description   *string `json:"description"`
    TotalChapters uint32  `json:"total_chapters"`
}

type chapterItem struct {
    ID          uint64 `json:"id"`
    ScriptureID uint64 `json:"scripture_id,omitempty"`
    ChapterNo   uint32 `json:"chapter_no"`
    Title       string `json:"title"`
    Content     string `json:"content"`
}

type scriptureDetail struct {
    scriptureItem
    Chapters []chapterItem `json:"chapters"`
}

func toScriptureItem(s model.Scripture) scriptureItem {
    return scriptureItem{ID: s.ID, Title: s.Title, Category: s.Category, Description: s.Description, TotalChapters: s.TotalChapters}
}

// List handles GET /v1/scriptures.
func (h *ScriptureHandler) List(c echo.Context) error {
    list, err := h.Scriptures.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]scriptureItem, 0, len(list))
    for _, s := range list {
        out = append(out, toScriptureItem(s))
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/scriptures/:id, including chapters in order.
func (h *ScriptureHandler) Get(c echo.Context) error {
    ctx := c.Request().Context()
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scripture id"})
    }
    s, err := h.Scriptures.GetByID(ctx, id)
    if errors.Is(err, repository.ErrScriptureNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "scripture not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    chapters, err := h.Scriptures.ListChapters(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := scriptureDetail{scriptureItem: toScriptureItem(*s), Chapters: make([]chapterItem, 0, len(chapters))}
    for _, ch := range chapters {
        out.Chapters = append(out.Chapters, chapterItem{ID: ch.ID, ChapterNo: ch.ChapterNo, Title: ch.Title, Content: ch.Content})
    }
    return c.JSON(http.StatusOK, out)
}

// Chapter handles GET /v1/scriptures/:id/chapters/:chapterId.
func (h *ScriptureHandler) Chapter(c echo.Context) error {
    sid, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
    cid, err2 := strconv.ParseUint(c.Param("chapterId"), 10, 64)
    if err1 != nil || err2 != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ch, err := h.Scriptures.GetChapter(c.Request().Context(), sid, cid)
    if errors.Is(err, repository.ErrChapterNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "chapter not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, chapterItem{ID: ch.ID, ScriptureID: ch.ScriptureID, ChapterNo: ch.ChapterNo, Title: ch.Title, Content: ch.Content})
}
