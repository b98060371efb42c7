package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Users are identified by an opaque token handed out at creation
// (and rendered as a QR code) rather than by credentials.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Token        – unique opaque identity token.
//  Nickname     – display name.
//  CreatedAt    – timestamp of creation.
//  LastVisit    – last time the token was resolved.
//  TotalMinutes – accumulated minutes of completed sessions.
type User struct {
    ID           uint64    // users.id
    Token        string    // users.token
    Nickname     string    // users.nickname
    CreatedAt    time.Time // users.created_at
    LastVisit    time.Time // users.last_visit
    TotalMinutes int64     // users.total_minutes
}

// ReadingProgress models an entry in the `reading_progress` table.  There
// is at most one row per user and scripture.
type ReadingProgress struct {
    ID             uint64    // reading_progress.id
    UserID         uint64    // reading_progress.user_id
    ScriptureID    uint64    // reading_progress.scripture_id
    ChapterID      *uint64   // reading_progress.chapter_id (nullable)
    ScrollPosition float64   // reading_progress.scroll_position (0.0 – 1.0)
    LastReadAt     time.Time // reading_progress.last_read_at
}
