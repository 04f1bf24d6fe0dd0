package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/timer"
	"github.com/Avflux/Av-sub001/internal/tracker"
)

func registerTools(server *sdkmcp.Server, svc Services) {
	// Activities
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_activity",
		Description: "Create a new activity with an estimate or a planned end time. New activities start paused.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateActivityParams) (*sdkmcp.CallToolResult, ActivityResponse, error) {
		req, err := buildCreateRequest(getUserID(ctx), in)
		if err != nil {
			return nil, ActivityResponse{}, toolError(err)
		}
		act, err := svc.Activities.Create(ctx, req)
		if err != nil {
			return nil, ActivityResponse{}, toolError(err)
		}
		return nil, toActivityResponse(act), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activities",
		Description: "List activities of the current user, optionally filtered by status",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListActivitiesParams) (*sdkmcp.CallToolResult, ActivityListResponse, error) {
		opts := activity.ListOptions{UserID: getUserID(ctx), Limit: in.Limit, Offset: in.Offset}
		if in.Status != "" {
			status := activity.Status(in.Status)
			switch status {
			case activity.StatusActive, activity.StatusPaused, activity.StatusCompleted:
			default:
				return nil, ActivityListResponse{}, toolError(fmt.Errorf("%w: unknown status %q", activity.ErrInvalidInput, in.Status))
			}
			opts.Status = &status
		}
		acts, err := svc.Activities.List(ctx, opts)
		if err != nil {
			return nil, ActivityListResponse{}, toolError(err)
		}
		resp := ActivityListResponse{Activities: make([]ActivityResponse, 0, len(acts))}
		for i := range acts {
			resp.Activities = append(resp.Activities, toActivityResponse(&acts[i]))
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_activity",
		Description: "Get one activity with its stored timer columns",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ActivityIDParams) (*sdkmcp.CallToolResult, ActivityResponse, error) {
		act, err := svc.Activities.Get(ctx, in.ID)
		if err != nil {
			return nil, ActivityResponse{}, toolError(err)
		}
		if act.UserID != getUserID(ctx) {
			return nil, ActivityResponse{}, toolError(activity.ErrActivityNotFound)
		}
		return nil, toActivityResponse(act), nil
	})

	// Timer
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_activity",
		Description: "Bind an activity to the timer and start counting down its estimate",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ActivityIDParams) (*sdkmcp.CallToolResult, ActivityRefResponse, error) {
		info, err := svc.Tracker.StartActivity(ctx, getUserID(ctx), in.ID)
		if err != nil {
			return nil, ActivityRefResponse{}, toolError(err)
		}
		return nil, *toActivityRef(info), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "pause_activity",
		Description: "Pause the running activity",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ PauseActivityParams) (*sdkmcp.CallToolResult, ActivityRefResponse, error) {
		info, err := svc.Tracker.PauseActivity(ctx, getUserID(ctx))
		if err != nil {
			return nil, ActivityRefResponse{}, toolError(err)
		}
		return nil, *toActivityRef(info), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resume_activity",
		Description: "Resume a paused activity from where it stopped",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ActivityIDParams) (*sdkmcp.CallToolResult, ActivityRefResponse, error) {
		info, err := svc.Tracker.ResumeActivity(ctx, getUserID(ctx), in.ID)
		if err != nil {
			return nil, ActivityRefResponse{}, toolError(err)
		}
		return nil, *toActivityRef(info), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "stop_activity",
		Description: "Stop the bound activity and mark it completed. A reason is required once the estimate was exceeded.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in StopActivityParams) (*sdkmcp.CallToolResult, ActivityResponse, error) {
		act, err := svc.Tracker.StopActivity(ctx, getUserID(ctx), in.Reason)
		if err != nil {
			return nil, ActivityResponse{}, toolError(err)
		}
		return nil, toActivityResponse(act), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_timer_status",
		Description: "Get the timer value, elapsed, idle and productive time of the bound activity",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetTimerStatusParams) (*sdkmcp.CallToolResult, TimerStatusResponse, error) {
		userID := getUserID(ctx)
		st := visibleStatus(svc.Tracker.Status(), userID)
		if st.DailyUserID != userID {
			daily, err := svc.Tracker.DailyTotalFor(ctx, userID)
			if err != nil {
				return nil, TimerStatusResponse{}, toolError(err)
			}
			st.Daily = daily
			st.DailyDisplay = calendar.FormatDuration(daily)
		}
		return nil, toTimerStatus(st), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_daily_time",
		Description: "Get the business time accumulated today",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetDailyTimeParams) (*sdkmcp.CallToolResult, DailyTimeResponse, error) {
		daily, err := svc.Tracker.DailyTotalFor(ctx, getUserID(ctx))
		if err != nil {
			return nil, DailyTimeResponse{}, toolError(err)
		}
		return nil, DailyTimeResponse{
			Daily:        calendar.FormatDuration(daily),
			DailySeconds: int64(daily / time.Second),
		}, nil
	})

	// Journal
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_journal",
		Description: "List recent timer events, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetJournalParams) (*sdkmcp.CallToolResult, JournalResponse, error) {
		opts := journal.ListOptions{UserID: getUserID(ctx), Limit: in.Limit, Offset: in.Offset}
		if in.ActivityID != "" {
			opts.ActivityID = &in.ActivityID
		}
		if in.Type != "" {
			entryType := journal.EntryType(in.Type)
			opts.Type = &entryType
		}
		entries, err := svc.Journal.Recent(ctx, opts)
		if err != nil {
			return nil, JournalResponse{}, toolError(err)
		}
		resp := JournalResponse{Entries: make([]JournalEntryResponse, 0, len(entries))}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, toJournalEntry(e))
		}
		return nil, resp, nil
	})
}

func buildCreateRequest(userID string, in CreateActivityParams) (activity.CreateRequest, error) {
	req := activity.CreateRequest{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
	}
	if in.Estimate != "" {
		estimate, err := parseEstimate(in.Estimate)
		if err != nil {
			return req, err
		}
		req.Estimate = estimate
	}
	var err error
	if req.StartTime, err = parseTimestamp("start_time", in.StartTime); err != nil {
		return req, err
	}
	if req.EndTime, err = parseTimestamp("end_time", in.EndTime); err != nil {
		return req, err
	}
	if req.Estimate == 0 && req.EndTime.IsZero() {
		return req, fmt.Errorf("%w: estimate or end_time is required", activity.ErrInvalidInput)
	}
	return req, nil
}

// parseEstimate accepts the stored HH:MM:SS form or a Go duration.
func parseEstimate(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if d, err := calendar.ParseDuration(value); err == nil && d > 0 {
		return d, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid estimate %q", activity.ErrInvalidInput, value)
	}
	return d, nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s %q", activity.ErrInvalidInput, field, value)
	}
	return t.Local(), nil
}

// visibleStatus hides an activity bound by another user.
func visibleStatus(st tracker.Status, userID string) tracker.Status {
	if st.Activity == nil || st.Activity.UserID == userID {
		return st
	}
	return tracker.Status{
		Phase:          timer.PhaseIdle,
		TimerDisplay:   calendar.FormatDuration(0),
		TotalDisplay:   calendar.FormatDuration(0),
		IdleDisplay:    calendar.FormatDuration(0),
		ProductiveText: calendar.FormatDuration(0),
		Daily:          st.Daily,
		DailyDisplay:   st.DailyDisplay,
		DailyUserID:    st.DailyUserID,
	}
}
