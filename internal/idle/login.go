package idle

import (
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
)

// LoginWatcher drives the monitor's login suppression from the timer. With
// no activity bound nobody is signed in to a task, so idle time is not
// tracked.
type LoginWatcher struct {
	observer.Base
	monitor *Monitor
}

// NewLoginWatcher subscribes nothing by itself; pass the result to
// observer.Bus.Subscribe.
func NewLoginWatcher(m *Monitor) *LoginWatcher {
	return &LoginWatcher{monitor: m}
}

func (w *LoginWatcher) OnActivityStatusChanged(info *activity.Info) error {
	w.monitor.SetLoginWindow(info == nil)
	return nil
}
