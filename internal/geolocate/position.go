// Package geolocate turns a device position into a human-readable
// intersection label via a reverse-geocoding lookup.
package geolocate

import (
	"context"
	"errors"
	"fmt"
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PositionSource acquires the device position.
type PositionSource interface {
	Position(ctx context.Context) (Position, error)
}

// Device position error codes.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// ErrUnsupported is returned when there is no position source at all.
var ErrUnsupported = errors.New("geolocation is not supported")

// PositionError is a failure reported by the device.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position error %d: %s", e.Code, e.Message)
}

// FailureMessage maps a position failure to the status shown to the user.
func FailureMessage(err error) string {
	if errors.Is(err, ErrUnsupported) {
		return "this device does not support geolocation"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out: check the network or move outdoors"
	}
	var pe *PositionError
	if !errors.As(err, &pe) {
		return "location error: " + err.Error()
	}
	switch pe.Code {
	case CodePermissionDenied:
		return "access denied: allow this app to read your location"
	case CodePositionUnavailable:
		return "poor signal: unable to detect your current position"
	case CodeTimeout:
		return "timed out: check the network or move outdoors"
	default:
		return "location error: " + pe.Message
	}
}

// DeviceReport is a position (or failure) already acquired by a remote
// device, as posted by the dashboard.
type DeviceReport struct {
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ErrorCode    int      `json:"error_code,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// Position implements PositionSource.
func (r DeviceReport) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if r.ErrorCode != 0 {
		return Position{}, &PositionError{Code: r.ErrorCode, Message: r.ErrorMessage}
	}
	if r.Latitude == nil || r.Longitude == nil {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: "no coordinates reported"}
	}
	return Position{Latitude: *r.Latitude, Longitude: *r.Longitude}, nil
}

// SourceFunc adapts a function to PositionSource.
type SourceFunc func(ctx context.Context) (Position, error)

func (f SourceFunc) Position(ctx context.Context) (Position, error) {
	return f(ctx)
}
