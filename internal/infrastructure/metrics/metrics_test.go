package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordTransition("cancel", "applied")
	m.RecordTransition("cancel", "applied")
	m.RecordTransition("upgrade", "drift_risk")
	m.RecordBillingEvent("invoice.paid", "applied")
	m.RecordProvisionerRequest("create", "error")
	m.RecordPlanCacheLookup("redis", true)
	m.RecordSweep("expire", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubscriptionTransitionsTotal.WithLabelValues("cancel", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionTransitionsTotal.WithLabelValues("upgrade", "drift_risk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillingEventsTotal.WithLabelValues("invoice.paid", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisionerRequestsTotal.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanCacheLookupsTotal.WithLabelValues("redis", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRunsTotal.WithLabelValues("expire", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordTransition("create", "applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `llmapp_subscription_transitions_total{operation="create",outcome="applied"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
