package intersection

import (
	"errors"
	"fmt"
)

var (
	// ErrIntersectionNotFound indicates no record has the requested id.
	ErrIntersectionNotFound = errors.New("intersection not found")
	// ErrInvalidInput indicates invalid intersection input.
	ErrInvalidInput = errors.New("invalid intersection input")
	// ErrEmptyName is returned by Create when the name is blank after trimming.
	ErrEmptyName = fmt.Errorf("%w: name is required", ErrInvalidInput)
	// ErrInvalidScheduleTime indicates a schedule time that is not HH:MM[:SS].
	ErrInvalidScheduleTime = fmt.Errorf("%w: schedule time must be HH:MM:SS", ErrInvalidInput)
	// ErrPersist wraps failures of the backing store. The in-memory mutation
	// that triggered the save is kept.
	ErrPersist = errors.New("persisting intersections")
)
