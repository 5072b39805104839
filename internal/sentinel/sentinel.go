package sentinel

import "errors"

// Sentinel dependency errors. Dependencies should return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidState  = errors.New("invalid state")
	ErrExpired       = errors.New("expired")
	ErrSessionOpen   = errors.New("open session exists")
	ErrNoOpenSession = errors.New("no open session")
	ErrUnavailable   = errors.New("unavailable")
)
