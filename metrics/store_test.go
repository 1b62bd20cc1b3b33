package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := metrics.NewService(reg)

	svc.IncCacheHit("courts")
	svc.IncCacheHit("courts")
	svc.IncCacheMiss("courts")
	svc.IncRatingSubmitted("court")
	svc.AddPremiumExpired(3)
	svc.AddPremiumExpired(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.CacheHits.WithLabelValues("courts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.CacheMisses.WithLabelValues("courts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.RatingsSubmitted.WithLabelValues("court")))
	assert.Equal(t, 3.0, testutil.ToFloat64(svc.PremiumExpired))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := metrics.NewService(reg)
	svc.ObserveHTTPRequest(http.MethodGet, "/api/courts", http.StatusOK, 0.01)

	rec := httptest.NewRecorder()
	metrics.NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `meetbasket_http_requests_total{method="GET",route="/api/courts",status="200"} 1`)
}
