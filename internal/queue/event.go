// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// SessionEventsQueue is the durable queue carrying session lifecycle events.
const SessionEventsQueue = "session.events"

// Event types.
const (
    EventSessionActivated = "session.activated"
    EventSessionExpired   = "session.expired"
)

// SessionEvent is published after a session transition has been committed.
// Consumers get enough context to log or bill without reading the database.
type SessionEvent struct {
    Type          string     `json:"type"`
    SessionID     uint64     `json:"session_id"`
    UserID        *uint64    `json:"user_id,omitempty"`
    OrderRef      string     `json:"out_trade_no"`
    DurationHours float64    `json:"duration_hours"`
    Forced        bool       `json:"forced,omitempty"`
    StartTime     *time.Time `json:"start_time,omitempty"`
    EndTime       *time.Time `json:"end_time,omitempty"`
    OccurredAt    time.Time  `json:"occurred_at"`
}
