package intersection

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default light durations in seconds, used for new intersections and as the
// fallback when an edited value cannot be read as a number.
const (
	DefaultGreen  = 15
	DefaultYellow = 3
	DefaultRed    = 15
)

// Intersection is the persisted configuration of one simulated traffic light.
type Intersection struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	ScheduleTime ScheduleTime `json:"scheduleTime"`
	Durations    Durations    `json:"durations"`
}

// Durations holds the per-light durations in whole seconds. All values are >= 1
// once they have passed through the registry.
type Durations struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

// DefaultDurations returns the 15/3/15 triple.
func DefaultDurations() Durations {
	return Durations{Green: DefaultGreen, Yellow: DefaultYellow, Red: DefaultRed}
}

// Clamped returns a copy with every value raised to at least one second.
func (d Durations) Clamped() Durations {
	return Durations{
		Green:  max(1, d.Green),
		Yellow: max(1, d.Yellow),
		Red:    max(1, d.Red),
	}
}

// Restored fills zero values with their defaults and clamps the rest, the way
// a stored record written without durations is read back.
func (d Durations) Restored() Durations {
	if d.Green == 0 {
		d.Green = DefaultGreen
	}
	if d.Yellow == 0 {
		d.Yellow = DefaultYellow
	}
	if d.Red == 0 {
		d.Red = DefaultRed
	}
	return d.Clamped()
}

// Period is the length of one full green-yellow-red cycle in seconds.
func (d Durations) Period() int {
	return d.Green + d.Yellow + d.Red
}

// ScheduleTime is a time of day with second precision and no date or zone.
// The zero value is "unset".
type ScheduleTime struct {
	Hour   int
	Minute int
	Second int
	set    bool
}

// NewScheduleTime builds a set ScheduleTime, validating the ranges.
func NewScheduleTime(hour, minute, second int) (ScheduleTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return ScheduleTime{}, fmt.Errorf("%w: %02d:%02d:%02d out of range", ErrInvalidScheduleTime, hour, minute, second)
	}
	return ScheduleTime{Hour: hour, Minute: minute, Second: second, set: true}, nil
}

// ScheduleTimeOf returns the local wall-clock time of day of t.
func ScheduleTimeOf(t time.Time) ScheduleTime {
	return ScheduleTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), set: true}
}

// ParseScheduleTime accepts "HH:MM" or "HH:MM:SS". An empty string yields an
// unset time and no error.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ScheduleTime{}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ScheduleTime{}, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, s)
	}

	var fields [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return ScheduleTime{}, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, s)
		}
		fields[i] = n
	}
	return NewScheduleTime(fields[0], fields[1], fields[2])
}

// IsSet reports whether a time of day was configured.
func (t ScheduleTime) IsSet() bool {
	return t.set
}

// On returns the instant at this time of day on the calendar date of day,
// in day's location.
func (t ScheduleTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, day.Location())
}

// String formats the time as HH:MM:SS, or "" when unset.
func (t ScheduleTime) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t ScheduleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ScheduleTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScheduleTime, string(data))
	}
	parsed, err := ParseScheduleTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
