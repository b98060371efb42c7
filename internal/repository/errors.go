// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicateOrderRef is returned when an order reference is reused.
var ErrDuplicateOrderRef = errors.New("order reference already exists")

// ErrImmutableField is returned when an update tries to change a field
// that is fixed at creation (duration, order reference, owner).
var ErrImmutableField = errors.New("immutable session field changed")

// ErrUserNotFound is returned when a token does not resolve to a user.
var ErrUserNotFound = errors.New("user not found")

// ErrScriptureNotFound is returned when a scripture id is unknown.
var ErrScriptureNotFound = errors.New("scripture not found")

// ErrChapterNotFound is returned when a chapter is unknown or does not
// belong to the requested scripture.
var ErrChapterNotFound = errors.New("chapter not found")
