package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
)

// ActivityEdges returns an EdgeFunc that logs window openings and closings.
func ActivityEdges(log intersection.ActivityLogger, logger *slog.Logger) EdgeFunc {
	return func(ctx context.Context, snap Snapshot, edge schedule.Edge) {
		var (
			typ     activity.Type
			summary string
		)
		switch edge {
		case schedule.Opened:
			typ = activity.TypeSignalActivated
			summary = fmt.Sprintf("%q entered its window %s", snap.Name, snap.Window)
		case schedule.Closed:
			typ = activity.TypeSignalStandby
			summary = fmt.Sprintf("%q returned to standby", snap.Name)
		default:
			return
		}
		id := snap.IntersectionID
		if logger != nil {
			logger.Info("signal "+edge.String(), "intersection_id", id, "window", snap.Window)
		}
		err := log.LogActivity(ctx, &activity.Entry{IntersectionID: &id, Type: typ, Summary: summary})
		if err != nil && logger != nil {
			logger.Warn("failed to record signal activity", "error", err, "intersection_id", id)
		}
	}
}
