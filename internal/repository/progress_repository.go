package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/zenpod/internal/model"
)

// ProgressRepo stores one reading position per user and scripture.
type ProgressRepo struct {
    db *sql.DB
}

// NewProgressRepo returns a new ProgressRepo bound to the given database.
func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{db: db} }

// ProgressDetail is a progress row joined with its scripture title.
type ProgressDetail struct {
    ScriptureID    uint64    `json:"scripture_id"`
    ScriptureTitle string    `json:"scripture_title"`
    ChapterID      *uint64   `json:"chapter_id"`
    ScrollPosition float64   `json:"scroll_position"`
    LastReadAt     time.Time `json:"last_read_at"`
}

// ListByUser returns a user's progress, most recently read first.
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint64) ([]ProgressDetail, error) {
    const q = `SELECT p.scripture_id, s.title, p.chapter_id, p.scroll_position, p.last_read_at
               FROM reading_progress p
               JOIN scriptures s ON s.id = p.scripture_id
               WHERE p.user_id = ?
               ORDER BY p.last_read_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []ProgressDetail{}
    for rows.Next() {
        var (
            d         ProgressDetail
            chapterID sql.NullInt64
        )
        if err := rows.Scan(&d.ScriptureID, &d.ScriptureTitle, &chapterID, &d.ScrollPosition, &d.LastReadAt); err != nil {
            return nil, err
        }
        if chapterID.Valid {
            cid := uint64(chapterID.Int64)
            d.ChapterID = &cid
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// Upsert records the reading position for (user, scripture), replacing
// any previous position.  It relies on the unique key over both columns.
func (r *ProgressRepo) Upsert(ctx context.Context, p model.ReadingProgress) error {
    if p.LastReadAt.IsZero() {
        p.LastReadAt = time.Now().UTC()
    }
    const q = `INSERT INTO reading_progress (user_id, scripture_id, chapter_id, scroll_position, last_read_at)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE chapter_id = VALUES(chapter_id),
                                       scroll_position = VALUES(scroll_position),
                                       last_read_at = VALUES(last_read_at)`
    _, err := r.db.ExecContext(ctx, q, p.UserID, p.ScriptureID, nullUint(p.ChapterID), p.ScrollPosition, p.LastReadAt.UTC())
    return err
}
