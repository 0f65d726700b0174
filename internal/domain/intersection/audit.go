package intersection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rpggio/crossing/internal/domain/activity"
)

// ActivityLogger appends entries to the activity log.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}

// NewAuditListener returns a ChangeListener that records creates, updates and
// deletes in the activity log. Logging failures are reported to logger only.
func NewAuditListener(log ActivityLogger, logger *slog.Logger) ChangeListener {
	return ChangeListenerFunc(func(ctx context.Context, change Change) {
		var typ activity.Type
		switch change.Kind {
		case ChangeCreated:
			typ = activity.TypeIntersectionCreated
		case ChangeUpdated:
			typ = activity.TypeIntersectionUpdated
		case ChangeDeleted:
			typ = activity.TypeIntersectionDeleted
		default:
			return
		}

		id := change.Record.ID
		details, _ := json.Marshal(change.Record)
		entry := &activity.Entry{
			IntersectionID: &id,
			Type:           typ,
			Summary:        fmt.Sprintf("%s %q", change.Kind, change.Record.Name),
			Details:        string(details),
		}
		if err := log.LogActivity(ctx, entry); err != nil && logger != nil {
			logger.Warn("failed to record intersection activity", "error", err, "intersection_id", id)
		}
	})
}
