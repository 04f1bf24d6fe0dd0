package mcp

import (
	"context"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/timer"
	"github.com/Avflux/Av-sub001/internal/tracker"
)

type activityStub struct {
	createFn func(context.Context, activity.CreateRequest) (*activity.Activity, error)
	getFn    func(context.Context, string) (*activity.Activity, error)
	listFn   func(context.Context, activity.ListOptions) ([]activity.Activity, error)
}

func (s activityStub) Create(ctx context.Context, req activity.CreateRequest) (*activity.Activity, error) {
	return s.createFn(ctx, req)
}
func (s activityStub) Get(ctx context.Context, id string) (*activity.Activity, error) {
	return s.getFn(ctx, id)
}
func (s activityStub) List(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error) {
	return s.listFn(ctx, opts)
}

type trackerStub struct {
	startFn  func(context.Context, string, string) (*activity.Info, error)
	pauseFn  func(context.Context, string) (*activity.Info, error)
	resumeFn func(context.Context, string, string) (*activity.Info, error)
	stopFn   func(context.Context, string, string) (*activity.Activity, error)
	dailyFn  func(context.Context, string) (time.Duration, error)
	status   tracker.Status
}

func (s trackerStub) StartActivity(ctx context.Context, userID, id string) (*activity.Info, error) {
	return s.startFn(ctx, userID, id)
}
func (s trackerStub) PauseActivity(ctx context.Context, userID string) (*activity.Info, error) {
	return s.pauseFn(ctx, userID)
}
func (s trackerStub) ResumeActivity(ctx context.Context, userID, id string) (*activity.Info, error) {
	return s.resumeFn(ctx, userID, id)
}
func (s trackerStub) StopActivity(ctx context.Context, userID, reason string) (*activity.Activity, error) {
	return s.stopFn(ctx, userID, reason)
}
func (s trackerStub) Status() tracker.Status { return s.status }
func (s trackerStub) DailyTotalFor(ctx context.Context, userID string) (time.Duration, error) {
	if s.dailyFn != nil {
		return s.dailyFn(ctx, userID)
	}
	return s.status.Daily, nil
}

type journalStub struct {
	recentFn func(context.Context, journal.ListOptions) ([]journal.Entry, error)
}

func (s journalStub) Recent(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	return s.recentFn(ctx, opts)
}

func connect(t *testing.T, services Services) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(Config{
		Services:      services,
		TransportMode: "stdio",
		DefaultUser:   "user-1",
	})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func structured(t *testing.T, res *sdkmcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, "unexpected tool error: %v", res.Content)
	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %T", res.StructuredContent)
	return out
}

func errorText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t, Services{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"create_activity", "list_activities", "get_activity",
		"start_activity", "pause_activity", "resume_activity", "stop_activity",
		"get_timer_status", "get_daily_time", "get_journal",
	}, names)
}

func TestCreateActivity(t *testing.T) {
	var got activity.CreateRequest
	cs := connect(t, Services{Activities: activityStub{
		createFn: func(_ context.Context, req activity.CreateRequest) (*activity.Activity, error) {
			got = req
			start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
			return &activity.Activity{
				ID: "a1", UserID: req.UserID, Name: req.Name,
				StartTime: start, EndTime: start.Add(req.Estimate),
				Status: activity.StatusPaused, Mode: activity.ModeRegressive,
			}, nil
		},
	}})

	out := structured(t, callTool(t, cs, "create_activity", map[string]any{
		"name":     "Report",
		"estimate": "01:30:00",
	}))
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, 90*time.Minute, got.Estimate)
	require.Equal(t, "a1", out["id"])
	require.Equal(t, "paused", out["status"])
	require.Equal(t, "regressive", out["mode"])
}

func TestCreateActivity_AcceptsGoDurations(t *testing.T) {
	req, err := buildCreateRequest("u", CreateActivityParams{Name: "x", Estimate: "45m"})
	require.NoError(t, err)
	require.Equal(t, 45*time.Minute, req.Estimate)

	_, err = buildCreateRequest("u", CreateActivityParams{Name: "x"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	_, err = buildCreateRequest("u", CreateActivityParams{Name: "x", Estimate: "00:00:00"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	_, err = buildCreateRequest("u", CreateActivityParams{Name: "x", EndTime: "tomorrow"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestGetActivity_HidesOtherUsers(t *testing.T) {
	cs := connect(t, Services{Activities: activityStub{
		getFn: func(_ context.Context, id string) (*activity.Activity, error) {
			return &activity.Activity{ID: id, UserID: "someone-else", Status: activity.StatusPaused}, nil
		},
	}})

	text := errorText(t, callTool(t, cs, "get_activity", map[string]any{"id": "a1"}))
	require.Contains(t, text, "ACTIVITY_NOT_FOUND")
}

func TestListActivities_RejectsUnknownStatus(t *testing.T) {
	cs := connect(t, Services{Activities: activityStub{
		listFn: func(context.Context, activity.ListOptions) ([]activity.Activity, error) {
			t.Fatal("list must not be called")
			return nil, nil
		},
	}})

	text := errorText(t, callTool(t, cs, "list_activities", map[string]any{"status": "running"}))
	require.Contains(t, text, "INVALID_INPUT")
}

func TestTimerTools_PassUserAndMapErrors(t *testing.T) {
	var startedBy, stopReason string
	cs := connect(t, Services{Tracker: trackerStub{
		startFn: func(_ context.Context, userID, id string) (*activity.Info, error) {
			startedBy = userID
			return &activity.Info{ID: id, UserID: userID, Name: "Report", Status: activity.StatusActive, Mode: activity.ModeRegressive}, nil
		},
		pauseFn: func(context.Context, string) (*activity.Info, error) {
			return nil, timer.ErrNotRunning
		},
		resumeFn: func(context.Context, string, string) (*activity.Info, error) {
			return nil, timer.ErrActivityBound
		},
		stopFn: func(_ context.Context, _ string, reason string) (*activity.Activity, error) {
			stopReason = reason
			return nil, activity.ErrReasonRequired
		},
	}})

	out := structured(t, callTool(t, cs, "start_activity", map[string]any{"id": "a1"}))
	require.Equal(t, "user-1", startedBy)
	require.Equal(t, "active", out["status"])

	require.Contains(t, errorText(t, callTool(t, cs, "pause_activity", map[string]any{})), "NOT_RUNNING")
	require.Contains(t, errorText(t, callTool(t, cs, "resume_activity", map[string]any{"id": "a2"})), "ACTIVITY_BOUND")
	require.Contains(t, errorText(t, callTool(t, cs, "stop_activity", map[string]any{})), "REASON_REQUIRED")
	require.Empty(t, stopReason)
}

func TestGetTimerStatus(t *testing.T) {
	status := tracker.Status{
		Phase:          timer.PhaseRunningProgressive,
		Activity:       &activity.Info{ID: "a1", UserID: "user-1", Status: activity.StatusActive, Mode: activity.ModeProgressive},
		Mode:           activity.ModeProgressive,
		TimerValue:     5 * time.Minute,
		TimerDisplay:   "+00:05:00",
		TotalElapsed:   65 * time.Minute,
		TotalDisplay:   "01:05:00",
		IdleDisplay:    "00:02:00",
		ProductiveText: "01:03:00",
		Daily:          2 * time.Hour,
		DailyDisplay:   "02:00:00",
	}
	cs := connect(t, Services{Tracker: trackerStub{status: status}})

	out := structured(t, callTool(t, cs, "get_timer_status", map[string]any{}))
	require.Equal(t, "running_progressive", out["phase"])
	require.Equal(t, "+00:05:00", out["timer"])
	require.Equal(t, "01:03:00", out["productive"])
	require.EqualValues(t, 300, out["timer_seconds"])

	daily := structured(t, callTool(t, cs, "get_daily_time", map[string]any{}))
	require.Equal(t, "02:00:00", daily["daily"])
	require.EqualValues(t, 7200, daily["daily_seconds"])
}

func TestGetDailyTime_ReadsCallerTotal(t *testing.T) {
	var askedFor string
	status := tracker.Status{
		Phase:        timer.PhaseRunningRegressive,
		Activity:     &activity.Info{ID: "a1", UserID: "other"},
		TimerDisplay: "00:10:00",
		Daily:        3 * time.Hour,
		DailyDisplay: "03:00:00",
		DailyUserID:  "other",
	}
	cs := connect(t, Services{Tracker: trackerStub{
		status: status,
		dailyFn: func(_ context.Context, userID string) (time.Duration, error) {
			askedFor = userID
			return 45 * time.Minute, nil
		},
	}})

	daily := structured(t, callTool(t, cs, "get_daily_time", map[string]any{}))
	require.Equal(t, "user-1", askedFor)
	require.Equal(t, "00:45:00", daily["daily"])
	require.EqualValues(t, 2700, daily["daily_seconds"])

	out := structured(t, callTool(t, cs, "get_timer_status", map[string]any{}))
	require.Equal(t, "idle", out["phase"])
	require.Equal(t, "00:45:00", out["daily"])
}

func TestVisibleStatus_HidesForeignActivity(t *testing.T) {
	st := tracker.Status{
		Phase:        timer.PhaseRunningRegressive,
		Activity:     &activity.Info{ID: "a1", UserID: "other"},
		TimerDisplay: "00:10:00",
		DailyDisplay: "01:00:00",
	}

	got := visibleStatus(st, "user-1")
	require.Equal(t, timer.PhaseIdle, got.Phase)
	require.Nil(t, got.Activity)
	require.Equal(t, "00:00:00", got.TimerDisplay)
	require.Equal(t, "01:00:00", got.DailyDisplay)
}

func TestGetJournal(t *testing.T) {
	var got journal.ListOptions
	cs := connect(t, Services{Journal: journalStub{
		recentFn: func(_ context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
			got = opts
			id := "a1"
			return []journal.Entry{{
				ID: 7, UserID: opts.UserID, ActivityID: &id,
				Type: journal.TypeTimeExceeded, Summary: "Report exceeded its estimate",
				CreatedAt: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			}}, nil
		},
	}})

	out := structured(t, callTool(t, cs, "get_journal", map[string]any{"activity_id": "a1", "type": "time_exceeded", "limit": 5}))
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, 5, got.Limit)
	require.NotNil(t, got.ActivityID)
	require.NotNil(t, got.Type)
	require.Equal(t, journal.TypeTimeExceeded, *got.Type)

	entries, ok := out["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	require.Equal(t, "time_exceeded", entry["type"])
	require.Equal(t, "a1", entry["activity_id"])
}

func TestReadTimerDocs(t *testing.T) {
	cs := connect(t, Services{})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "worktime://docs/timer"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "REASON_REQUIRED")
}
