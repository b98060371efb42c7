package model

import (
    "errors"
    "time"
)

// ErrInvalidSession is returned by Validate when a session record would
// break one of its state invariants.  Stores refuse to persist such rows.
var ErrInvalidSession = errors.New("invalid session state")

// Session represents one purchased block of access time.  A session is
// created unpaid and inactive, becomes paid and active exactly once and
// ends when its duration has elapsed.  An ended session never starts
// again.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning user (nullable for anonymous purchases).
//  DurationHours – purchased duration in hours; immutable.
//  OrderRef      – payment order reference, unique across sessions.
//  IsPaid        – whether the payment provider confirmed settlement.
//  IsActive      – whether the session clock is running.
//  StartTime     – when the session became active.
//  EndTime       – when the session was observed expired.
//  CreatedAt     – creation timestamp.
type Session struct {
    ID            uint64     // sessions.id
    UserID        *uint64    // sessions.user_id (nullable)
    DurationHours float64    // sessions.duration_hours
    OrderRef      string     // sessions.order_ref
    IsPaid        bool       // sessions.is_paid
    IsActive      bool       // sessions.is_active
    StartTime     *time.Time // sessions.start_time (nullable)
    EndTime       *time.Time // sessions.end_time (nullable)
    CreatedAt     time.Time  // sessions.created_at
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool { return s.EndTime != nil }

// Duration returns the purchased duration as a time.Duration.
func (s *Session) Duration() time.Duration {
    return time.Duration(s.DurationHours * float64(time.Hour))
}

// Remaining returns the unused time at now.  It is negative or zero once
// the purchased duration has elapsed and zero for sessions that never
// started.
func (s *Session) Remaining(now time.Time) time.Duration {
    if s.StartTime == nil {
        return 0
    }
    return s.Duration() - now.Sub(*s.StartTime)
}

// Validate checks the invariants every persisted session must satisfy.
func (s *Session) Validate() error {
    switch {
    case !(s.DurationHours > 0):
        return errors.Join(ErrInvalidSession, errors.New("duration must be positive"))
    case s.OrderRef == "":
        return errors.Join(ErrInvalidSession, errors.New("order reference is required"))
    case s.IsActive && (s.StartTime == nil || s.EndTime != nil):
        return errors.Join(ErrInvalidSession, errors.New("active session needs a start time and no end time"))
    case s.IsActive && !s.IsPaid:
        return errors.Join(ErrInvalidSession, errors.New("unpaid session cannot be active"))
    }
    return nil
}

// Clone returns a deep copy so callers can mutate the result without
// touching the original's nullable fields.
func (s Session) Clone() Session {
    out := s
    if s.UserID != nil {
        v := *s.UserID
        out.UserID = &v
    }
    if s.StartTime != nil {
        v := *s.StartTime
        out.StartTime = &v
    }
    if s.EndTime != nil {
        v := *s.EndTime
        out.EndTime = &v
    }
    return out
}
