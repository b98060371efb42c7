package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/zenpod/internal/model"
)

var sessionColumns = []string{"id", "user_id", "duration_hours", "order_ref", "is_paid", "is_active", "start_time", "end_time", "created_at"}

func newMockSessionRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewSessionRepo(db), mock
}

func TestSessionRepo_Create(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
        WithArgs(nil, 1.5, "ref-1", false, false, nil, nil, sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(42, 1))

    s := &model.Session{DurationHours: 1.5, OrderRef: "ref-1"}
    require.NoError(t, repo.Create(context.Background(), s))
    assert.Equal(t, uint64(42), s.ID)
    assert.False(t, s.CreatedAt.IsZero())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_CreateDuplicateOrderRef(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ref-1'"})

    err := repo.Create(context.Background(), &model.Session{DurationHours: 1, OrderRef: "ref-1"})
    assert.ErrorIs(t, err, ErrDuplicateOrderRef)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_CreateRejectsInvalid(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    err := repo.Create(context.Background(), &model.Session{DurationHours: 0, OrderRef: "ref-1"})
    assert.ErrorIs(t, err, model.ErrInvalidSession)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByID(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
    start := created.Add(time.Minute)
    mock.ExpectQuery(regexp.QuoteMeta(selectSession + ` WHERE id = ?`)).
        WithArgs(7).
        WillReturnRows(sqlmock.NewRows(sessionColumns).
            AddRow(7, 3, 2.0, "ref-7", true, true, start, nil, created))

    s, err := repo.GetByID(context.Background(), 7)
    require.NoError(t, err)
    require.NotNil(t, s.UserID)
    assert.Equal(t, uint64(3), *s.UserID)
    assert.True(t, s.IsActive)
    require.NotNil(t, s.StartTime)
    assert.True(t, s.StartTime.Equal(start))
    assert.Nil(t, s.EndTime)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByIDNotFound(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectQuery(regexp.QuoteMeta(selectSession)).
        WillReturnRows(sqlmock.NewRows(sessionColumns))

    _, err := repo.GetByID(context.Background(), 99)
    assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepo_UpdateLocksAndWrites(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
    now := created.Add(time.Minute)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(selectSession + ` WHERE id = ? FOR UPDATE`)).
        WithArgs(5).
        WillReturnRows(sqlmock.NewRows(sessionColumns).
            AddRow(5, nil, 1.0, "ref-5", false, false, nil, nil, created))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET is_paid = ?, is_active = ?, start_time = ?, end_time = ? WHERE id = ?`)).
        WithArgs(true, true, now, nil, 5).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    s, err := repo.Update(context.Background(), 5, func(s *model.Session) (bool, error) {
        s.IsPaid = true
        s.IsActive = true
        s.StartTime = &now
        return true, nil
    })
    require.NoError(t, err)
    assert.True(t, s.IsActive)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_UpdateUnchangedSkipsWrite(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows(sessionColumns).
            AddRow(5, nil, 1.0, "ref-5", false, false, nil, nil, time.Now()))
    mock.ExpectCommit()

    _, err := repo.Update(context.Background(), 5, func(*model.Session) (bool, error) { return false, nil })
    require.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_UpdateRollsBackOnError(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows(sessionColumns).
            AddRow(5, nil, 1.0, "ref-5", false, false, nil, nil, time.Now()))
    mock.ExpectRollback()

    boom := errors.New("boom")
    _, err := repo.Update(context.Background(), 5, func(*model.Session) (bool, error) { return false, boom })
    assert.ErrorIs(t, err, boom)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_UpdateRejectsImmutableChange(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows(sessionColumns).
            AddRow(5, nil, 1.0, "ref-5", false, false, nil, nil, time.Now()))
    mock.ExpectRollback()

    _, err := repo.Update(context.Background(), 5, func(s *model.Session) (bool, error) {
        s.DurationHours = 3
        return true, nil
    })
    assert.ErrorIs(t, err, ErrImmutableField)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_UpdateNotFound(t *testing.T) {
    repo, mock := newMockSessionRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows(sessionColumns))
    mock.ExpectRollback()

    _, err := repo.Update(context.Background(), 5, func(*model.Session) (bool, error) { return true, nil })
    assert.ErrorIs(t, err, ErrSessionNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}
