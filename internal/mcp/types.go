package mcp

import (
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/tracker"
)

type CreateActivityParams struct {
	Name        string `json:"name" jsonschema:"activity display name"`
	Description string `json:"description,omitempty" jsonschema:"what the activity covers"`
	Estimate    string `json:"estimate,omitempty" jsonschema:"estimated duration as HH:MM:SS or a Go duration such as 1h30m"`
	StartTime   string `json:"start_time,omitempty" jsonschema:"planned start (RFC 3339), defaults to now"`
	EndTime     string `json:"end_time,omitempty" jsonschema:"planned end (RFC 3339), used when no estimate is given"`
}

type ListActivitiesParams struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status: active, paused or completed"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
	Offset int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

type ActivityIDParams struct {
	ID string `json:"id" jsonschema:"activity ID"`
}

type PauseActivityParams struct{}

type StopActivityParams struct {
	Reason string `json:"reason,omitempty" jsonschema:"why the activity ran over its estimate, required once overtime started"`
}

type GetTimerStatusParams struct{}

type GetDailyTimeParams struct{}

type GetJournalParams struct {
	ActivityID string `json:"activity_id,omitempty" jsonschema:"only entries for this activity"`
	Type       string `json:"type,omitempty" jsonschema:"only entries of this type"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Offset     int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

// ActivityResponse is the wire form of an activity. Durations are HH:MM:SS.
type ActivityResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	Mode         string `json:"mode"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	TimeRegress  string `json:"time_regress"`
	TimeExceeded string `json:"time_exceeded"`
	TotalTime    string `json:"total_time"`
	IdleTime     string `json:"idle_time"`
	Reason       string `json:"reason,omitempty"`
}

type ActivityRefResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	EndTime string `json:"end_time"`
}

type ActivityListResponse struct {
	Activities []ActivityResponse `json:"activities"`
}

type TimerStatusResponse struct {
	Phase        string               `json:"phase"`
	Activity     *ActivityRefResponse `json:"activity,omitempty"`
	Mode         string               `json:"mode,omitempty"`
	Timer        string               `json:"timer"`
	Total        string               `json:"total"`
	Idle         string               `json:"idle"`
	Productive   string               `json:"productive"`
	IsIdle       bool                 `json:"is_idle"`
	Daily        string               `json:"daily"`
	TimerSeconds int64                `json:"timer_seconds"`
	TotalSeconds int64                `json:"total_seconds"`
}

type DailyTimeResponse struct {
	Daily        string `json:"daily"`
	DailySeconds int64  `json:"daily_seconds"`
}

type JournalEntryResponse struct {
	ID         int64  `json:"id"`
	ActivityID string `json:"activity_id,omitempty"`
	Type       string `json:"type"`
	Summary    string `json:"summary"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type JournalResponse struct {
	Entries []JournalEntryResponse `json:"entries"`
}

func toActivityResponse(a *activity.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Status:       string(a.Status),
		Mode:         string(a.Mode),
		StartTime:    a.StartTime.Format(time.RFC3339),
		EndTime:      a.EndTime.Format(time.RFC3339),
		TimeRegress:  calendar.FormatDuration(a.TimeRegress),
		TimeExceeded: calendar.FormatDuration(a.TimeExceeded),
		TotalTime:    calendar.FormatDuration(a.TotalTime),
		IdleTime:     calendar.FormatDuration(a.IdleTime),
	}
	if a.Reason != nil {
		resp.Reason = *a.Reason
	}
	return resp
}

func toActivityRef(info *activity.Info) *ActivityRefResponse {
	if info == nil {
		return nil
	}
	return &ActivityRefResponse{
		ID:      info.ID,
		Name:    info.Name,
		Status:  string(info.Status),
		Mode:    string(info.Mode),
		EndTime: info.EndTime.Format(time.RFC3339),
	}
}

func toTimerStatus(st tracker.Status) TimerStatusResponse {
	return TimerStatusResponse{
		Phase:        string(st.Phase),
		Activity:     toActivityRef(st.Activity),
		Mode:         string(st.Mode),
		Timer:        st.TimerDisplay,
		Total:        st.TotalDisplay,
		Idle:         st.IdleDisplay,
		Productive:   st.ProductiveText,
		IsIdle:       st.IsIdle,
		Daily:        st.DailyDisplay,
		TimerSeconds: int64(st.TimerValue / time.Second),
		TotalSeconds: int64(st.TotalElapsed / time.Second),
	}
}

func toJournalEntry(e journal.Entry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:        e.ID,
		Type:      string(e.Type),
		Summary:   e.Summary,
		Details:   e.Details,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.ActivityID != nil {
		resp.ActivityID = *e.ActivityID
	}
	return resp
}
