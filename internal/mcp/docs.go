package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `crossing runs traffic-light schedules for a set of intersections.

- An intersection has a name, an optional daily schedule time (HH:MM:SS) and green/yellow/red durations in seconds.
- Within 30 minutes either side of the schedule time the signal is active and cycles green -> yellow -> red -> green.
  Outside it the signal is in standby.
- Use list_intersections to orient, create/update/delete_intersection to edit, get_signal_status for one signal,
  check_schedule_window to preview a time, and list_activity for history.
- Read crossing://guide for the full model.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "crossing://guide",
		Name:        "guide",
		Title:       "crossing guide",
		Description: "The intersection model, the activation window and the light cycle.",
		Content: `# crossing guide

## Intersections

Each intersection has:

- ` + "`id`" + `: assigned on creation from the creation time in milliseconds.
- ` + "`name`" + `: display name, never blank.
- ` + "`scheduleTime`" + `: time of day as ` + "`HH:MM:SS`" + `, or empty for never.
- ` + "`durations`" + `: ` + "`{green, yellow, red}`" + ` in whole seconds, each at least 1.
  Missing or non-numeric values fall back to 15/3/15.

Updates are full replacements. Concurrent edits are last-write-wins.

## Activation window

A signal is active while the current time is within 30 minutes of the schedule time on the same calendar
day. Both bounds are inclusive and the window does not wrap past midnight. An unset schedule time never
activates.

## Light cycle

On activation the signal shows green with the full green duration, then counts down once per second.
When the countdown would reach zero it moves green -> yellow -> red -> green, taking each new light's
duration from the record as it is at that moment. Edits never rescale a light that is already running.
Leaving the window returns the signal to standby (blinking yellow, no countdown).
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
