package handler

import (
    "context"
    "errors"
    "net/http"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/zenpod/internal/config"
    "github.com/iliyamo/zenpod/internal/logger"
    "github.com/iliyamo/zenpod/internal/repository"
    "github.com/iliyamo/zenpod/internal/utils"
)

var (
    scriptureCols = []string{"id", "title", "category", "description", "total_chapters"}
    chapterCols   = []string{"id", "scripture_id", "chapter_no", "title", "content"}
    userCols      = []string{"id", "token", "nickname", "created_at", "last_visit", "total_minutes"}
)

func newCatalogEcho(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    scriptures := repository.NewScriptureRepo(db)
    sh := &ScriptureHandler{Scriptures: scriptures}
    uh := &UserHandler{
        Cfg:        config.Config{PublicBaseURL: "http://localhost:5173"},
        Users:      repository.NewUserRepo(db),
        Progress:   repository.NewProgressRepo(db),
        Scriptures: scriptures,
        Log:        logger.NewTestLogger(t),
    }
    e := echo.New()
    e.GET("/v1/scriptures", sh.List)
    e.GET("/v1/scriptures/:id", sh.Get)
    e.GET("/v1/scriptures/:id/chapters/:chapterId", sh.Chapter)
    e.POST("/v1/users", uh.Create)
    e.GET("/v1/users/token/:token", uh.Get)
    e.GET("/v1/users/token/:token/progress", uh.GetProgress)
    e.POST("/v1/users/token/:token/progress", uh.SaveProgress)
    return e, mock
}

func TestScriptureHandler_GetWithChapters(t *testing.T) {
    e, mock := newCatalogEcho(t)
    mock.ExpectQuery(regexp.QuoteMeta("FROM scriptures WHERE id = ?")).WithArgs(2).
        WillReturnRows(sqlmock.NewRows(scriptureCols).AddRow(2, "道德经", "道家", nil, 2))
    mock.ExpectQuery(regexp.QuoteMeta("ORDER BY chapter_no")).WithArgs(2).
        WillReturnRows(sqlmock.NewRows(chapterCols).AddRow(5, 2, 1, "第一章", "道可道").AddRow(6, 2, 2, "第二章", "天下皆知"))

    rec := doJSON(e, http.MethodGet, "/v1/scriptures/2", "")
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "道德经", body["title"])
    chapters := body["chapters"].([]any)
    require.Len(t, chapters, 2)
    assert.Equal(t, float64(1), chapters[0].(map[string]any)["chapter_no"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScriptureHandler_NotFound(t *testing.T) {
    e, mock := newCatalogEcho(t)
    mock.ExpectQuery(regexp.QuoteMeta("FROM scriptures WHERE id = ?")).
        WillReturnRows(sqlmock.NewRows(scriptureCols))
    assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodGet, "/v1/scriptures/9", "").Code)

    mock.ExpectQuery(regexp.QuoteMeta("FROM chapters WHERE id = ? AND scripture_id = ?")).
        WillReturnRows(sqlmock.NewRows(chapterCols))
    assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodGet, "/v1/scriptures/9/chapters/1", "").Code)
}

func TestScriptureHandler_ListDatabaseError(t *testing.T) {
    e, mock := newCatalogEcho(t)
    mock.ExpectQuery("FROM scriptures").WillReturnError(errors.New("gone"))
    rec := doJSON(e, http.MethodGet, "/v1/scriptures", "")
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserHandler_Create(t *testing.T) {
    e, mock := newCatalogEcho(t)
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
        WithArgs(sqlmock.AnyArg(), utils.DefaultNickname, sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(11, 1))

    rec := doJSON(e, http.MethodPost, "/v1/users", "")
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, float64(11), body["id"])
    assert.Len(t, body["token"], 22)
    assert.Equal(t, utils.DefaultNickname, body["nickname"])
    assert.NotEmpty(t, body["qr_base64"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserHandler_GetUnknownToken(t *testing.T) {
    e, mock := newCatalogEcho(t)
    mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE token=?")).WithArgs("nope").
        WillReturnRows(sqlmock.NewRows(userCols))
    rec := doJSON(e, http.MethodGet, "/v1/users/token/nope", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_SaveProgress(t *testing.T) {
    e, mock := newCatalogEcho(t)
    created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE token=?")).WithArgs("tok").
        WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "tok", "n", created, created, 0))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_visit=?")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta("FROM chapters WHERE id = ? AND scripture_id = ?")).WithArgs(8, 2).
        WillReturnRows(sqlmock.NewRows(chapterCols).AddRow(8, 2, 1, "t", "c"))
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reading_progress")).
        WithArgs(3, 2, 8, 0.25, sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(1, 1))

    rec := doJSON(e, http.MethodPost, "/v1/users/token/tok/progress", `{"scripture_id":2,"chapter_id":8,"scroll_position":0.25}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, true, decode(t, rec)["ok"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserHandler_SaveProgressValidation(t *testing.T) {
    e, _ := newCatalogEcho(t)
    assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/users/token/tok/progress", `{"scroll_position":0.5}`).Code)
    assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/users/token/tok/progress", `{"scripture_id":1,"scroll_position":1.5}`).Code)
}

type fakeAssistant struct{ err error }

func (f fakeAssistant) Explain(ctx context.Context, text, source string) (string, error) {
    return "explained: " + text, f.err
}

func (f fakeAssistant) Ask(ctx context.Context, q, s string) (string, error) {
    return "answered: " + q, f.err
}

type fakeSpeaker struct{ err error }

func (f fakeSpeaker) SynthesizeBase64(ctx context.Context, text, voice, rate string) (string, error) {
    if f.err != nil {
        return "", f.err
    }
    return "QVVESU8=", nil
}

func TestProviderHandlers(t *testing.T) {
    e := echo.New()
    ai := &AIHandler{AI: fakeAssistant{}, Log: logger.NewTestLogger(t)}
    sp := &TTSHandler{TTS: fakeSpeaker{}, Log: logger.NewTestLogger(t)}
    e.POST("/v1/ai/explain", ai.Explain)
    e.POST("/v1/ai/ask", ai.Ask)
    e.POST("/v1/tts", sp.Speak)

    rec := doJSON(e, http.MethodPost, "/v1/ai/explain", `{"text":"色即是空"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "explained: 色即是空", decode(t, rec)["answer"])

    rec = doJSON(e, http.MethodPost, "/v1/ai/ask", `{"question":""}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = doJSON(e, http.MethodPost, "/v1/tts", `{"text":"南无","voice":"female"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, map[string]any{"audio_base64": "QVVESU8=", "format": "mp3"}, decode(t, rec))
}

func TestProviderHandlersFailure(t *testing.T) {
    e := echo.New()
    ai := &AIHandler{AI: fakeAssistant{err: errors.New("provider down")}, Log: logger.NewNoOpLogger()}
    sp := &TTSHandler{TTS: fakeSpeaker{err: errors.New("tts provider returned empty audio")}, Log: logger.NewNoOpLogger()}
    e.POST("/v1/ai/ask", ai.Ask)
    e.POST("/v1/tts", sp.Speak)

    rec := doJSON(e, http.MethodPost, "/v1/ai/ask", `{"question":"why"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Equal(t, "provider down", decode(t, rec)["error"])

    rec = doJSON(e, http.MethodPost, "/v1/tts", `{"text":"x"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminLogin(t *testing.T) {
    hash, err := utils.HashPassword("lotus")
    require.NoError(t, err)

    e := echo.New()
    h := &AdminHandler{Cfg: config.Config{AdminPassHash: hash, JWTSecret: "s", AccessTTLMin: 15}, Log: logger.NewNoOpLogger()}
    e.POST("/v1/admin/login", h.Login)

    rec := doJSON(e, http.MethodPost, "/v1/admin/login", `{"password":"wrong"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = doJSON(e, http.MethodPost, "/v1/admin/login", `{"password":"lotus"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    claims, err := utils.ParseAccessToken("s", decode(t, rec)["token"].(string))
    require.NoError(t, err)
    assert.Equal(t, utils.RoleAdmin, claims.Role)

    disabled := echo.New()
    disabled.POST("/v1/admin/login", (&AdminHandler{Log: logger.NewNoOpLogger()}).Login)
    assert.Equal(t, http.StatusNotFound, doJSON(disabled, http.MethodPost, "/v1/admin/login", `{"password":"lotus"}`).Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(ctx context.Context) error { return errors.New("down") }

func TestHealthAndRoot(t *testing.T) {
    e := echo.New()
    e.GET("/", Root)
    e.GET("/healthz", Health(nil))
    e.GET("/degraded", Health(failingPinger{}))

    assert.Equal(t, map[string]any{"app": "ZenPod", "version": Version, "status": "running"}, decode(t, doJSON(e, http.MethodGet, "/", "")))
    assert.Equal(t, http.StatusOK, doJSON(e, http.MethodGet, "/healthz", "").Code)
    assert.Equal(t, http.StatusServiceUnavailable, doJSON(e, http.MethodGet, "/degraded", "").Code)
}
