package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveInvocation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveInvocation("category_updated", OutcomeRemoved, 3, 10*time.Millisecond)
	m.ObserveInvocation("category_updated", OutcomeNoop, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("category_updated", OutcomeRemoved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("category_updated", OutcomeNoop)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MembershipsRemovedTotal.WithLabelValues("category_updated")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InvocationDuration))
}

func TestMetrics_RecordDBStats(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 9})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBConnectionsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBConnectionsInUse))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsIdle))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.DBWaitCount))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.KickJobsTotal.WithLabelValues("ok").Inc()

	router := mux.NewRouter()
	RegisterMetricsEndpoint(router, registry)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `chatprune_autoremove_kick_jobs_total{status="ok"} 1`))
}
