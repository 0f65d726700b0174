package recorder

import "errors"

var (
	// ErrFinished is returned when a recorder that already completed or was
	// cancelled receives another action.
	ErrFinished = errors.New("recorder already finished")
	// ErrSessionNotFound indicates an unknown or expired recording session.
	ErrSessionNotFound = errors.New("recording session not found")
)
