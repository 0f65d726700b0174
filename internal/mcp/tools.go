package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
	"github.com/rpggio/crossing/internal/scheduler"
)

type tools struct {
	services Services
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type emptyInput struct{}

type idInput struct {
	ID int64 `json:"id" jsonschema:"intersection id"`
}

type createInput struct {
	Name         string                      `json:"name" jsonschema:"display name, must not be blank"`
	ScheduleTime string                      `json:"schedule_time,omitempty" jsonschema:"daily activation time as HH:MM or HH:MM:SS; empty leaves it unset"`
	Durations    intersection.DurationsInput `json:"durations,omitempty" jsonschema:"light durations in seconds; missing values default to 15/3/15"`
}

type updateInput struct {
	ID           int64                       `json:"id" jsonschema:"intersection id"`
	Name         string                      `json:"name" jsonschema:"display name"`
	ScheduleTime string                      `json:"schedule_time,omitempty" jsonschema:"daily activation time as HH:MM or HH:MM:SS; empty unsets it"`
	Durations    intersection.DurationsInput `json:"durations,omitempty" jsonschema:"light durations in seconds; this is a full replacement"`
}

type windowInput struct {
	Time string `json:"time" jsonschema:"time of day as HH:MM or HH:MM:SS"`
}

type activityInput struct {
	IntersectionID *int64 `json:"intersection_id,omitempty" jsonschema:"only entries for this intersection"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

type intersectionStatus struct {
	intersection.Intersection
	Status *scheduler.Snapshot `json:"status,omitempty"`
}

type windowResult struct {
	Time   string `json:"time"`
	Window string `json:"window"`
	Within bool   `json:"within"`
	Now    string `json:"now"`
}

func registerTools(server *sdkmcp.Server, t *tools) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_intersections",
		Description: "List every intersection in insertion order with its live signal state",
	}, t.listIntersections)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_intersection",
		Description: "Create an intersection; durations are coerced to whole seconds of at least 1",
	}, t.createIntersection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_intersection",
		Description: "Replace an intersection's name, schedule time and durations",
	}, t.updateIntersection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_intersection",
		Description: "Delete an intersection and stop its signal",
	}, t.deleteIntersection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_signal_status",
		Description: "Get the phase, lit light and countdown of one intersection",
	}, t.getSignalStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "check_schedule_window",
		Description: "Show the activation window around a time of day and whether now is inside it",
	}, t.checkScheduleWindow)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activity",
		Description: "List recent registry changes and signal phase changes, newest first",
	}, t.listActivity)
}

func (t *tools) listIntersections(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
	items := t.services.Registry.List()
	out := make([]intersectionStatus, 0, len(items))
	for _, rec := range items {
		out = append(out, t.status(rec))
	}
	return jsonResult(map[string]any{"intersections": out}), nil, nil
}

func (t *tools) createIntersection(ctx context.Context, _ *sdkmcp.CallToolRequest, in createInput) (*sdkmcp.CallToolResult, any, error) {
	rec, err := t.services.Registry.Create(ctx, intersection.CreateRequest{
		Name:         in.Name,
		ScheduleTime: in.ScheduleTime,
		Durations:    in.Durations,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}
	t.logger.Info("intersection created via mcp", "intersection_id", rec.ID, "session_id", getSessionID(ctx))
	return jsonResult(rec), nil, nil
}

func (t *tools) updateIntersection(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateInput) (*sdkmcp.CallToolResult, any, error) {
	rec, err := t.services.Registry.Update(ctx, in.ID, intersection.UpdateRequest{
		Name:         in.Name,
		ScheduleTime: in.ScheduleTime,
		Durations:    in.Durations,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(rec), nil, nil
}

func (t *tools) deleteIntersection(ctx context.Context, _ *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, any, error) {
	if err := t.services.Registry.Delete(ctx, in.ID); err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{"deleted": in.ID}), nil, nil
}

func (t *tools) getSignalStatus(_ context.Context, _ *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, any, error) {
	rec, err := t.services.Registry.Get(in.ID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(t.status(rec)), nil, nil
}

func (t *tools) checkScheduleWindow(_ context.Context, _ *sdkmcp.CallToolRequest, in windowInput) (*sdkmcp.CallToolResult, any, error) {
	at, err := intersection.ParseScheduleTime(in.Time)
	if err != nil {
		return errorResult(err), nil, nil
	}
	now := t.now()
	return jsonResult(windowResult{
		Time:   at.String(),
		Window: schedule.FormatWindow(at, t.window),
		Within: schedule.Within(at, now, t.window),
		Now:    now.Format(time.TimeOnly),
	}), nil, nil
}

func (t *tools) listActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in activityInput) (*sdkmcp.CallToolResult, any, error) {
	entries, err := t.services.Activity.GetRecentActivity(ctx, activity.ListOptions{
		IntersectionID: in.IntersectionID,
		Limit:          in.Limit,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return jsonResult(map[string]any{"entries": entries}), nil, nil
}

// status attaches the live signal state, or a standby snapshot when no
// signal runs yet.
func (t *tools) status(rec intersection.Intersection) intersectionStatus {
	snap, err := t.services.Signals.Snapshot(rec.ID)
	if err != nil {
		snap = scheduler.NewSignal(rec, t.window).Snapshot()
	}
	return intersectionStatus{Intersection: rec, Status: &snap}
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
