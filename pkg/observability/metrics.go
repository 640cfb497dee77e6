package observability

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invocation outcomes
const (
	OutcomeRemoved  = "removed"
	OutcomeNoop     = "noop"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Engine metrics
	InvocationsTotal        *prometheus.CounterVec
	InvocationDuration      *prometheus.HistogramVec
	MembershipsRemovedTotal *prometheus.CounterVec
	KickJobsTotal           *prometheus.CounterVec

	// Trigger consumer metrics
	TriggerEventsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitCount        prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics. A nil registry
// creates unregistered collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatprune_autoremove_invocations_total",
				Help: "Total number of membership reconciliation handler invocations",
			},
			[]string{"event", "outcome"},
		),
		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatprune_autoremove_duration_seconds",
				Help:    "Handler invocation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event"},
		),
		MembershipsRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatprune_autoremove_memberships_removed_total",
				Help: "Total number of channel memberships removed",
			},
			[]string{"event"},
		),
		KickJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatprune_autoremove_kick_jobs_total",
				Help: "Total number of kick jobs dispatched",
			},
			[]string{"status"},
		),
		TriggerEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatprune_trigger_events_total",
				Help: "Total number of trigger events consumed",
			},
			[]string{"type", "status"},
		),
		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatprune_db_connections_open",
			Help: "Number of open database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatprune_db_connections_in_use",
			Help: "Number of database connections in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatprune_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		DBWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatprune_db_connections_wait_count",
			Help: "Total number of connections waited for",
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.InvocationsTotal,
			m.InvocationDuration,
			m.MembershipsRemovedTotal,
			m.KickJobsTotal,
			m.TriggerEventsTotal,
			m.DBConnectionsOpen,
			m.DBConnectionsInUse,
			m.DBConnectionsIdle,
			m.DBWaitCount,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// ObserveInvocation records one handler run
func (m *Metrics) ObserveInvocation(event, outcome string, removed int, duration time.Duration) {
	m.InvocationsTotal.WithLabelValues(event, outcome).Inc()
	m.InvocationDuration.WithLabelValues(event).Observe(duration.Seconds())
	if removed > 0 {
		m.MembershipsRemovedTotal.WithLabelValues(event).Add(float64(removed))
	}
}

// RecordDBStats copies pool statistics into gauges
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBWaitCount.Set(float64(stats.WaitCount))
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
