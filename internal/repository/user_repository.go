package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/zenpod/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const selectUser = "SELECT id,token,nickname,created_at,last_visit,total_minutes FROM users"

// Create inserts a user with the given token and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, token, nickname string) (*model.User, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (token, nickname, created_at, last_visit) VALUES (?,?,?,?)",
		token, nickname, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.User{ID: uint64(id), Token: token, Nickname: nickname, CreatedAt: now, LastVisit: now}, nil
}

// GetByToken fetches a user by identity token.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, selectUser+" WHERE token=? LIMIT 1", token).
		Scan(&u.ID, &u.Token, &u.Nickname, &u.CreatedAt, &u.LastVisit, &u.TotalMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResolveToken looks a token up and records the visit.  Unknown tokens
// yield ErrUserNotFound.
func (r *UserRepo) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	u, err := r.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET last_visit=? WHERE id=?", now, u.ID); err != nil {
		return nil, err
	}
	u.LastVisit = now
	return u, nil
}

// AddMinutes credits completed session time to a user.
func (r *UserRepo) AddMinutes(ctx context.Context, userID uint64, minutes int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET total_minutes = total_minutes + ? WHERE id=?", minutes, userID)
	return err
}
