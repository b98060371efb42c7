package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/zenpod/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

const selectSession = `SELECT id, user_id, duration_hours, order_ref, is_paid, is_active, start_time, end_time, created_at
               FROM sessions`

// SessionRepo persists sessions in the `sessions` table.  Per-session
// serialization is provided by row locks: Update reads the row with
// SELECT ... FOR UPDATE inside a transaction.  All timestamps are UTC.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a new session and populates its generated ID.  It
// returns ErrDuplicateOrderRef when the order reference is already used.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
    if err := s.Validate(); err != nil {
        return err
    }
    if s.CreatedAt.IsZero() {
        s.CreatedAt = time.Now().UTC()
    }
    const q = `INSERT INTO sessions (user_id, duration_hours, order_ref, is_paid, is_active, start_time, end_time, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        nullUint(s.UserID), s.DurationHours, s.OrderRef, s.IsPaid, s.IsActive,
        nullTime(s.StartTime), nullTime(s.EndTime), s.CreatedAt.UTC(),
    )
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
            return ErrDuplicateOrderRef
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// GetByID returns the session with the given id or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
    s, err := scanSession(r.db.QueryRowContext(ctx, selectSession+` WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrSessionNotFound
    }
    return s, err
}

// Update applies fn to the locked row and writes the result back in the
// same transaction.  Concurrent updates on the same id block on the row
// lock, so the second caller's fn sees the first caller's write.
func (r *SessionRepo) Update(ctx context.Context, id uint64, fn UpdateFunc) (*model.Session, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    s, err := scanSession(tx.QueryRowContext(ctx, selectSession+` WHERE id = ? FOR UPDATE`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrSessionNotFound
        }
        return nil, err
    }
    before := s.Clone()
    changed, err := fn(s)
    if err != nil {
        return nil, err
    }
    if changed {
        if err := checkUpdate(&before, s); err != nil {
            return nil, err
        }
        const q = `UPDATE sessions SET is_paid = ?, is_active = ?, start_time = ?, end_time = ? WHERE id = ?`
        if _, err := tx.ExecContext(ctx, q, s.IsPaid, s.IsActive, nullTime(s.StartTime), nullTime(s.EndTime), s.ID); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return s, nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.Session, error) {
    var (
        s         model.Session
        userID    sql.NullInt64
        startTime sql.NullTime
        endTime   sql.NullTime
    )
    if err := row.Scan(&s.ID, &userID, &s.DurationHours, &s.OrderRef, &s.IsPaid, &s.IsActive, &startTime, &endTime, &s.CreatedAt); err != nil {
        return nil, err
    }
    if userID.Valid {
        uid := uint64(userID.Int64)
        s.UserID = &uid
    }
    if startTime.Valid {
        t := startTime.Time.UTC()
        s.StartTime = &t
    }
    if endTime.Valid {
        t := endTime.Time.UTC()
        s.EndTime = &t
    }
    return &s, nil
}

func nullUint(v *uint64) sql.NullInt64 {
    if v == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: t.UTC(), Valid: true}
}
