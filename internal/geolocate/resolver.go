package geolocate

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// DefaultPositionTimeout bounds position acquisition.
const DefaultPositionTimeout = 10 * time.Second

// Kind tags an Outcome.
type Kind string

const (
	KindPending Kind = "pending"
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Pending status messages, in the order they are reported.
const (
	StatusRequesting = "requesting location permission"
	StatusAcquiring  = "acquiring GPS coordinates"
	StatusLookingUp  = "coordinates acquired, looking up road name"
	StatusLocated    = "location found"
)

// Outcome is one step of a resolution. Exactly one Success or Failure ends
// every stream.
type Outcome struct {
	Kind     Kind      `json:"kind"`
	Message  string    `json:"message"`
	Label    string    `json:"label,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// Terminal reports whether o ends the stream.
func (o Outcome) Terminal() bool {
	return o.Kind != KindPending
}

// Resolver locates the device and labels its position.
type Resolver struct {
	geocoder        Geocoder
	positionTimeout time.Duration
	logger          *slog.Logger
}

// NewResolver creates a resolver. A nil geocoder always yields the
// coordinate label.
func NewResolver(geocoder Geocoder, positionTimeout time.Duration, logger *slog.Logger) *Resolver {
	if positionTimeout <= 0 {
		positionTimeout = DefaultPositionTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{geocoder: geocoder, positionTimeout: positionTimeout, logger: logger}
}

// Resolve runs one attempt in the background. The returned channel carries
// pending statuses followed by one terminal outcome, then closes. It is
// buffered for the whole stream so an abandoned reader never blocks the
// worker.
func (r *Resolver) Resolve(ctx context.Context, src PositionSource) <-chan Outcome {
	out := make(chan Outcome, 4)
	go func() {
		defer close(out)
		out <- Outcome{Kind: KindPending, Message: StatusRequesting}

		if src == nil {
			out <- Outcome{Kind: KindFailure, Message: FailureMessage(ErrUnsupported)}
			return
		}

		out <- Outcome{Kind: KindPending, Message: StatusAcquiring}
		posCtx, cancel := context.WithTimeout(ctx, r.positionTimeout)
		pos, err := src.Position(posCtx)
		cancel()
		if err != nil {
			r.logger.Warn("geolocation failed", "error", err)
			out <- Outcome{Kind: KindFailure, Message: FailureMessage(err)}
			return
		}

		out <- Outcome{Kind: KindPending, Message: StatusLookingUp}
		label := CoordinateLabel(pos)
		if r.geocoder != nil {
			named, err := r.geocoder.Reverse(ctx, pos)
			if err != nil {
				r.logger.Warn("reverse geocoding failed, using coordinates", "error", err,
					"latitude", pos.Latitude, "longitude", pos.Longitude)
			} else {
				label = named
			}
		}
		out <- Outcome{Kind: KindSuccess, Message: StatusLocated, Label: label, Position: &pos}
	}()
	return out
}

// Collect drains a resolution into a slice.
func Collect(ch <-chan Outcome) []Outcome {
	var all []Outcome
	for o := range ch {
		all = append(all, o)
	}
	return all
}
