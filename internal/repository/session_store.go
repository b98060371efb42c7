package repository

import (
    "context"

    "github.com/iliyamo/zenpod/internal/model"
)

// UpdateFunc mutates a session in place.  It runs while the store holds
// the session's serialization, so it must not block on the network.  It
// reports whether anything changed; unchanged sessions are not written.
type UpdateFunc func(s *model.Session) (changed bool, err error)

// SessionStore is the durable record of access sessions.  Writes are
// validated against the session invariants, and Update is atomic per
// session id: two concurrent updates on one id run one after the other,
// each seeing the other's result.
type SessionStore interface {
    Create(ctx context.Context, s *model.Session) error
    GetByID(ctx context.Context, id uint64) (*model.Session, error)
    Update(ctx context.Context, id uint64, fn UpdateFunc) (*model.Session, error)
}

// checkUpdate validates an updated session against its previous version.
func checkUpdate(before, after *model.Session) error {
    if before.ID != after.ID || before.DurationHours != after.DurationHours || before.OrderRef != after.OrderRef {
        return ErrImmutableField
    }
    if (before.UserID == nil) != (after.UserID == nil) || (before.UserID != nil && *before.UserID != *after.UserID) {
        return ErrImmutableField
    }
    return after.Validate()
}
