package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
)

func TestMetrics_Contadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.IncSubmission("committed")
	m.IncSubmission("committed")
	m.IncSubmission("local_only")
	m.ViewOpened()
	m.ViewOpened()
	m.ViewClosed()

	body := scrape(t, reg)
	assert.Contains(t, body, `enrolement_submissions_total{outcome="committed"} 2`)
	assert.Contains(t, body, `enrolement_submissions_total{outcome="local_only"} 1`)
	assert.Contains(t, body, "enrolement_open_views 1")
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_NilEsSeguro(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncSubmission("committed")
		m.IncChangeEvent("INSERT")
		m.ViewOpened()
		m.ViewClosed()
		m.IncRetry("failed")
		m.IncRemoteError("insert", "NETWORK")
	})
}

func TestHandler_ExponeMetricas(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncRetry("committed")

	assert.Contains(t, scrape(t, reg), `enrolement_sync_retries_total{result="committed"} 1`)
}
