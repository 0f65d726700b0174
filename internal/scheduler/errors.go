package scheduler

import "errors"

// ErrUnknownSignal indicates no signal runs for the requested intersection.
var ErrUnknownSignal = errors.New("no signal for intersection")
