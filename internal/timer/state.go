package timer

import (
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
)

// Phase is the externally visible engine state.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseRunningRegressive  Phase = "running_regressive"
	PhaseRunningProgressive Phase = "running_progressive"
	PhasePaused             Phase = "paused"
)

// State is the mutable timer record of the bound activity. It is owned by
// the Engine and only touched under its lock.
type State struct {
	Mode              activity.Mode
	IsRunning         bool
	StartTime         time.Time
	PauseStartTime    *time.Time
	ChronometerStart  *time.Time
	AccumulatedTime   time.Duration
	TotalPausedTime   time.Duration
	InitialTimerValue time.Duration
	TimerValue        time.Duration
	TotalElapsedTime  time.Duration
}

// elapsed is the running time of the current session in whole seconds.
func (s *State) elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartTime) - s.TotalPausedTime
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// columns projects the state onto the persisted timer columns.
func (s *State) columns() activity.TimerColumns {
	cols := activity.TimerColumns{
		TotalTime: s.TotalElapsedTime,
		Mode:      s.Mode,
	}
	if s.Mode == activity.ModeProgressive {
		cols.TimeExceeded = s.TimerValue
	} else if s.TimerValue > 0 {
		cols.TimeRegress = s.TimerValue
	}
	return cols
}

func (s *State) phase() Phase {
	switch {
	case s.IsRunning && s.Mode == activity.ModeProgressive:
		return PhaseRunningProgressive
	case s.IsRunning:
		return PhaseRunningRegressive
	default:
		return PhasePaused
	}
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Phase        Phase
	Activity     *activity.Info
	Mode         activity.Mode
	TimerValue   time.Duration
	TotalElapsed time.Duration
	Columns      activity.TimerColumns
}
