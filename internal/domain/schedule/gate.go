// Package schedule decides whether an intersection's daily activation window
// is open.
package schedule

import (
	"fmt"
	"time"

	"github.com/rpggio/crossing/internal/domain/intersection"
)

// DefaultWindow is the half-width of the activation band around the
// configured time of day.
const DefaultWindow = 30 * time.Minute

const unsetRange = "--:--:-- ~ --:--:--"

// IsWithinWindow reports whether now lies inside [target-30m, target+30m],
// where target is at combined with now's calendar date. Both bounds are
// inclusive. An unset time is never inside.
func IsWithinWindow(at intersection.ScheduleTime, now time.Time) bool {
	return Within(at, now, DefaultWindow)
}

// Within is IsWithinWindow with a configurable half-width. The window does
// not wrap across midnight.
func Within(at intersection.ScheduleTime, now time.Time, window time.Duration) bool {
	if !at.IsSet() {
		return false
	}
	diff := now.Sub(at.On(now))
	return diff >= -window && diff <= window
}

// Edge is the result of one gate evaluation relative to the previous one.
type Edge int

const (
	// NoEdge means the gate reports the same answer as last time.
	NoEdge Edge = iota
	// Opened is a false->true transition.
	Opened
	// Closed is a true->false transition.
	Closed
)

func (e Edge) String() string {
	switch e {
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	default:
		return "none"
	}
}

// Gate tracks the last evaluation so callers act only on edges.
type Gate struct {
	window time.Duration
	open   bool
}

// NewGate creates a closed gate. A non-positive window selects DefaultWindow.
func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{window: window}
}

// Evaluate re-checks the window and reports the edge, if any.
func (g *Gate) Evaluate(at intersection.ScheduleTime, now time.Time) Edge {
	within := Within(at, now, g.window)
	switch {
	case within && !g.open:
		g.open = true
		return Opened
	case !within && g.open:
		g.open = false
		return Closed
	default:
		return NoEdge
	}
}

// Open reports the result of the last evaluation.
func (g *Gate) Open() bool {
	return g.open
}

// Window returns the configured half-width.
func (g *Gate) Window() time.Duration {
	return g.window
}

// FormatWindow renders the activation band as "HH:MM:SS~HH:MM:SS" using wall
// clock times of day, so a band near midnight displays wrapped even though
// IsWithinWindow does not wrap.
func FormatWindow(at intersection.ScheduleTime, window time.Duration) string {
	if !at.IsSet() {
		return unsetRange
	}
	if window <= 0 {
		window = DefaultWindow
	}
	base := time.Duration(at.Hour)*time.Hour + time.Duration(at.Minute)*time.Minute + time.Duration(at.Second)*time.Second
	return fmt.Sprintf("%s~%s", clockOf(base-window), clockOf(base+window))
}

func clockOf(d time.Duration) string {
	const day = 24 * time.Hour
	d %= day
	if d < 0 {
		d += day
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
