package observer

import (
	"log/slog"
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
)

// LogSink renders notifications as formatted time strings on a logger.
// Ticks are logged at debug level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a display sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnTimerTick(tick TimerTick) error {
	s.logger.Debug("timer",
		"activity_id", tick.ActivityID,
		"value", calendar.FormatDisplay(tick.Value, tick.Mode == activity.ModeProgressive),
		"total", calendar.FormatDuration(tick.TotalElapsed),
	)
	return nil
}

func (s *LogSink) OnDailyTimeChanged(accumulated time.Duration) error {
	s.logger.Debug("daily time", "total", calendar.FormatDuration(accumulated))
	return nil
}

func (s *LogSink) OnActivityStatusChanged(info *activity.Info) error {
	if info == nil {
		s.logger.Info("no active activity")
		return nil
	}
	s.logger.Info("activity status", "activity_id", info.ID, "name", info.Name, "status", info.Status, "mode", info.Mode)
	return nil
}

func (s *LogSink) OnTimeExceeded(info activity.Info) error {
	s.logger.Warn("estimated time exceeded", "activity_id", info.ID, "name", info.Name)
	return nil
}

func (s *LogSink) OnIdleStatusChanged(status IdleStatus) error {
	s.logger.Info("idle status", "status", status)
	return nil
}
