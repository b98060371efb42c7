package repository

// Scripture catalog queries plus the insert path used when seeding an
// empty database.

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/zenpod/internal/model"
)

// ScriptureRepo encapsulates queries for scriptures and chapters.
type ScriptureRepo struct {
    db *sql.DB
}

// NewScriptureRepo constructs a ScriptureRepo with the provided DB handle.
func NewScriptureRepo(db *sql.DB) *ScriptureRepo {
    return &ScriptureRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can open a transaction
// spanning several inserts.
func (r *ScriptureRepo) DB() *sql.DB {
    return r.db
}

// ListAll returns every scripture ordered by id.
func (r *ScriptureRepo) ListAll(ctx context.Context) ([]model.Scripture, error) {
    const q = `SELECT id, title, category, description, total_chapters FROM scriptures ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Scripture{}
    for rows.Next() {
        s, err := scanScripture(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

// GetByID returns one scripture or ErrScriptureNotFound.
func (r *ScriptureRepo) GetByID(ctx context.Context, id uint64) (*model.Scripture, error) {
    const q = `SELECT id, title, category, description, total_chapters FROM scriptures WHERE id = ?`
    s, err := scanScripture(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrScriptureNotFound
    }
    return s, err
}

// ListChapters returns the chapters of a scripture ordered by chapter_no.
func (r *ScriptureRepo) ListChapters(ctx context.Context, scriptureID uint64) ([]model.Chapter, error) {
    const q = `SELECT id, scripture_id, chapter_no, title, content FROM chapters
               WHERE scripture_id = ? ORDER BY chapter_no`
    rows, err := r.db.QueryContext(ctx, q, scriptureID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Chapter{}
    for rows.Next() {
        var c model.Chapter
        if err := rows.Scan(&c.ID, &c.ScriptureID, &c.ChapterNo, &c.Title, &c.Content); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// GetChapter returns a chapter only when it belongs to the scripture.
func (r *ScriptureRepo) GetChapter(ctx context.Context, scriptureID, chapterID uint64) (*model.Chapter, error) {
    const q = `SELECT id, scripture_id, chapter_no, title, content FROM chapters WHERE id = ? AND scripture_id = ?`
    var c model.Chapter
    err := r.db.QueryRowContext(ctx, q, chapterID, scriptureID).Scan(&c.ID, &c.ScriptureID, &c.ChapterNo, &c.Title, &c.Content)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrChapterNotFound
    }
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// Count returns the number of scriptures in the catalog.
func (r *ScriptureRepo) Count(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scriptures`).Scan(&n)
    return n, err
}

// CreateWithChaptersTx inserts a scripture and its chapters inside the
// caller's transaction.  TotalChapters is derived from the chapter list
// and the generated IDs are written back.
func (r *ScriptureRepo) CreateWithChaptersTx(ctx context.Context, tx *sql.Tx, s *model.Scripture, chapters []model.Chapter) error {
    s.TotalChapters = uint32(len(chapters))
    res, err := tx.ExecContext(ctx,
        `INSERT INTO scriptures (title, category, description, total_chapters) VALUES (?, ?, ?, ?)`,
        s.Title, s.Category, s.Description, s.TotalChapters)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    for i := range chapters {
        chapters[i].ScriptureID = s.ID
        res, err := tx.ExecContext(ctx,
            `INSERT INTO chapters (scripture_id, chapter_no, title, content) VALUES (?, ?, ?, ?)`,
            s.ID, chapters[i].ChapterNo, chapters[i].Title, chapters[i].Content)
        if err != nil {
            return err
        }
        cid, err := res.LastInsertId()
        if err != nil {
            return err
        }
        chapters[i].ID = uint64(cid)
    }
    return nil
}

func scanScripture(row rowScanner) (*model.Scripture, error) {
    var (
        s    model.Scripture
        desc sql.NullString
    )
    if err := row.Scan(&s.ID, &s.Title, &s.Category, &desc, &s.TotalChapters); err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        s.Description = &d
    }
    return &s, nil
}
