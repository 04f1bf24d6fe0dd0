package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `worktime tracks time spent on estimated activities.

Core concepts:
- Activity: a unit of work with an estimate (start and end time). New activities start paused.
- Timer: one activity at a time. It counts the estimate down (regressive) and, once it reaches zero,
  counts overtime up (progressive). The switch happens once and is recorded in the journal.
- Idle: when neither mouse nor keyboard activity is seen for the configured thresholds, the span
  counts as idle. Productive time is total elapsed minus idle.
- Daily time: business time accumulated today, counted only inside company hours and outside the lunch break.

Workflow:
1) create_activity with an estimate, or list_activities to find an existing one.
2) start_activity(id) binds it to the timer. pause_activity / resume_activity(id) as work is interrupted.
3) stop_activity concludes it. A reason is required once the estimate was exceeded.
4) get_timer_status, get_daily_time and get_journal are read-only.

Docs:
- worktime://docs/timer (timer rules and error codes)
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
		URI:         "worktime://docs/timer",
		Name:        "docs_timer",
		Title:       "Timer rules",
		Description: "How the activity timer, idle detection and daily accumulation behave, and which errors tools return.",
		Content: `# Timer rules

## Activity timer
- The countdown starts from the time remaining until the activity's end time, or from the stored
  countdown when the activity was paused before.
- Pausing keeps the remaining countdown; resuming continues from it. Time spent paused never counts.
- When the countdown reaches zero the timer turns progressive and counts overtime from 00:00:01.
  It never turns back.
- The timer is written to storage at most once a minute while running, and always on pause and stop.

## Idle time
- Idle time accumulates while the timer runs and no input is seen. It is added to the activity on
  pause and stop.
- During the lunch break and while the login window is shown, idle detection is suspended.

## Daily time
- Counted from open to close, skipping the lunch break, only while an activity runs.
- Resets at the first update after midnight.
- Kept per user: each caller sees their own total for today.

## Error codes
- ACTIVITY_NOT_FOUND: unknown ID or an activity of another user.
- ACTIVITY_BOUND: another activity holds the timer. Stop it first.
- NO_ACTIVITY: nothing bound to the timer.
- NOT_RUNNING / NOT_PAUSED / ALREADY_RUNNING: the requested transition does not apply.
- REASON_REQUIRED: the activity ran over its estimate; pass a reason to stop_activity.
- ALREADY_COMPLETED: the activity was concluded before.
- INVALID_INPUT: missing or malformed arguments.
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
