// Package metrics exports timer, daily and idle state as Prometheus
// metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
)

// Collector is an observer that mirrors bus notifications into metrics
// registered on its own registry.
type Collector struct {
	observer.Base

	registry *prometheus.Registry

	TimerValue      *prometheus.GaugeVec
	TotalElapsed    prometheus.Gauge
	DailySeconds    prometheus.Gauge
	Idle            prometheus.Gauge
	ActivityRunning prometheus.Gauge
	TimeExceeded    prometheus.Counter
	StatusChanges   *prometheus.CounterVec
	IdleTransitions *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with a fresh registry that also carries
// the Go and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		TimerValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "worktime_timer_value_seconds",
				Help: "Current timer value of the bound activity",
			},
			[]string{"mode"}, // regressive, progressive
		),
		TotalElapsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worktime_timer_total_elapsed_seconds",
			Help: "Total worked time of the bound activity",
		}),
		DailySeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worktime_daily_accumulated_seconds",
			Help: "Business time worked today",
		}),
		Idle: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worktime_idle",
			Help: "1 while no input is detected",
		}),
		ActivityRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worktime_activity_running",
			Help: "1 while an activity timer is running",
		}),
		TimeExceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "worktime_time_exceeded_total",
			Help: "Number of activities that ran past their estimate",
		}),
		StatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worktime_activity_status_changes_total",
				Help: "Activity status notifications by status",
			},
			[]string{"status"}, // active, paused, none
		),
		IdleTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worktime_idle_transitions_total",
				Help: "Idle monitor transitions by new status",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) OnTimerTick(tick observer.TimerTick) error {
	c.TimerValue.Reset()
	c.TimerValue.WithLabelValues(string(tick.Mode)).Set(tick.Value.Seconds())
	c.TotalElapsed.Set(tick.TotalElapsed.Seconds())
	return nil
}

func (c *Collector) OnDailyTimeChanged(accumulated time.Duration) error {
	c.DailySeconds.Set(accumulated.Seconds())
	return nil
}

func (c *Collector) OnActivityStatusChanged(info *activity.Info) error {
	if info == nil {
		c.StatusChanges.WithLabelValues("none").Inc()
		c.ActivityRunning.Set(0)
		c.TimerValue.Reset()
		c.TotalElapsed.Set(0)
		return nil
	}
	c.StatusChanges.WithLabelValues(string(info.Status)).Inc()
	if info.Status == activity.StatusActive {
		c.ActivityRunning.Set(1)
	} else {
		c.ActivityRunning.Set(0)
	}
	return nil
}

func (c *Collector) OnTimeExceeded(activity.Info) error {
	c.TimeExceeded.Inc()
	return nil
}

func (c *Collector) OnIdleStatusChanged(status observer.IdleStatus) error {
	c.IdleTransitions.WithLabelValues(string(status)).Inc()
	if status == observer.IdleStatusIdle {
		c.Idle.Set(1)
	} else {
		c.Idle.Set(0)
	}
	return nil
}

// Middleware records request counts and latencies by route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		c.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
