package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/metrics"
	"github.com/Avflux/Av-sub001/internal/observer"
)

func TestCollector_MirrorsNotifications(t *testing.T) {
	c := metrics.NewCollector()
	bus := observer.NewBus(nil)
	bus.Subscribe(c)

	info := activity.Info{ID: "a1", Status: activity.StatusActive}
	bus.PublishActivityStatus(&info)
	bus.PublishTimerTick(observer.TimerTick{ActivityID: "a1", Mode: activity.ModeRegressive, Value: 7 * time.Minute, TotalElapsed: 3 * time.Minute})
	bus.PublishDailyTime(2 * time.Hour)
	bus.PublishIdleStatus(observer.IdleStatusIdle)
	bus.PublishTimeExceeded(info)

	require.Equal(t, 1.0, testutil.ToFloat64(c.ActivityRunning))
	require.Equal(t, 420.0, testutil.ToFloat64(c.TimerValue.WithLabelValues("regressive")))
	require.Equal(t, 180.0, testutil.ToFloat64(c.TotalElapsed))
	require.Equal(t, 7200.0, testutil.ToFloat64(c.DailySeconds))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Idle))
	require.Equal(t, 1.0, testutil.ToFloat64(c.TimeExceeded))

	bus.PublishTimerTick(observer.TimerTick{ActivityID: "a1", Mode: activity.ModeProgressive, Value: time.Second})
	require.Equal(t, 1, testutil.CollectAndCount(c.TimerValue))

	bus.PublishIdleStatus(observer.IdleStatusActive)
	bus.PublishActivityStatus(nil)
	require.Equal(t, 0.0, testutil.ToFloat64(c.Idle))
	require.Equal(t, 0.0, testutil.ToFloat64(c.ActivityRunning))
	require.Equal(t, 1.0, testutil.ToFloat64(c.StatusChanges.WithLabelValues("none")))
}

func TestCollector_HandlerAndMiddleware(t *testing.T) {
	c := metrics.NewCollector()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "worktime_daily_accumulated_seconds"))
}
