// Package metrics exposes scheduler and dispatcher counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/careminder/internal/models"
)

type Recorder interface {
	IncImports(result string)
	IncTriggersScheduled(kind models.TriggerKind)
	IncSchedulingFailures()
	IncNotificationsSent()
	IncNotificationFailures()
	SetPendingTriggers(count int)
	Handler() http.Handler
}

type PrometheusRecorder struct {
	registry             *prometheus.Registry
	imports              *prometheus.CounterVec
	triggersScheduled    *prometheus.CounterVec
	schedulingFailures   prometheus.Counter
	notificationsSent    prometheus.Counter
	notificationFailures prometheus.Counter
	pendingTriggers      prometheus.Gauge
}

// New returns a recorder backed by its own registry, so several can coexist
// in one process (tests, daemon plus TUI).
func New() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careminder_imports_total",
			Help: "Total number of code imports by result",
		}, []string{"result"}),

		triggersScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careminder_triggers_scheduled_total",
			Help: "Total number of triggers registered with the notification service",
		}, []string{"kind"}),

		schedulingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "careminder_scheduling_failures_total",
			Help: "Total number of triggers that could not be registered",
		}),

		notificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "careminder_notifications_sent_total",
			Help: "Total number of notifications delivered",
		}),

		notificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "careminder_notification_failures_total",
			Help: "Total number of failed notification deliveries",
		}),

		pendingTriggers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careminder_pending_triggers",
			Help: "Number of triggers waiting to fire",
		}),
	}
}

func (m *PrometheusRecorder) IncImports(result string) {
	m.imports.WithLabelValues(result).Inc()
}

func (m *PrometheusRecorder) IncTriggersScheduled(kind models.TriggerKind) {
	m.triggersScheduled.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusRecorder) IncSchedulingFailures() {
	m.schedulingFailures.Inc()
}

func (m *PrometheusRecorder) IncNotificationsSent() {
	m.notificationsSent.Inc()
}

func (m *PrometheusRecorder) IncNotificationFailures() {
	m.notificationFailures.Inc()
}

func (m *PrometheusRecorder) SetPendingTriggers(count int) {
	m.pendingTriggers.Set(float64(count))
}

func (m *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Noop is used when metrics are disabled.
type Noop struct{}

func (Noop) IncImports(_ string)                       {}
func (Noop) IncTriggersScheduled(_ models.TriggerKind) {}
func (Noop) IncSchedulingFailures()                    {}
func (Noop) IncNotificationsSent()                     {}
func (Noop) IncNotificationFailures()                  {}
func (Noop) SetPendingTriggers(_ int)                  {}
func (Noop) Handler() http.Handler                     { return http.NotFoundHandler() }

// OrNoop returns r, or Noop when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return Noop{}
	}
	return r
}
