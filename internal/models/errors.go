package models

import "errors"

// User related errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Session related errors. Expired tokens surface as ErrSessionNotFound:
// the lookup query filters on expires_at, and callers treat both the same
// way (clear the cookie, ask the user to sign in again).
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Review related errors
var (
	ErrReviewNotFound = errors.New("review not found")
)
