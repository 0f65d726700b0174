package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeIntersectionCreated Type = "intersection_created"
	TypeIntersectionUpdated Type = "intersection_updated"
	TypeIntersectionDeleted Type = "intersection_deleted"
	TypeSignalActivated     Type = "signal_activated"
	TypeSignalStandby       Type = "signal_standby"
)

// Entry represents an event in the activity log
type Entry struct {
	ID             int64     `json:"id"`
	IntersectionID *int64    `json:"intersection_id,omitempty"`
	Type           Type      `json:"type"`
	Summary        string    `json:"summary"`
	Details        string    `json:"details,omitempty"` // JSON string
	CreatedAt      time.Time `json:"created_at"`
}
