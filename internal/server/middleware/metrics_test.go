package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	resetHTTPMetrics(t, DefaultMetricsConfig)

	e := echo.New()
	e.Use(Metrics())
	e.GET("/search", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/broken", func(c echo.Context) error {
		return fmt.Errorf("upstream blew up")
	})

	rec := httptest.NewRecorder()
	for range 5 {
		makeRequest(e, "/search", rec)
	}
	for range 3 {
		makeRequest(e, "/broken", rec)
	}
	makeRequest(e, "/missing", rec)

	makeRequest(e, "/metrics", rec)
	body := rec.Body.String()

	assert.Contains(t, body, `request_duration_seconds_count{code="200",method="GET",path="/search"} 5`)
	assert.Contains(t, body, `request_duration_seconds_count{code="500",method="GET",path="/broken"} 3`)
	// Unknown routes collapse to a single series so bots cannot blow up
	// label cardinality.
	assert.Contains(t, body, `request_duration_seconds_count{code="404",method="GET",path="/not-found"} 1`)
}

func makeRequest(e *echo.Echo, path string, rec http.ResponseWriter) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.ServeHTTP(rec, req)
}

// resetHTTPMetrics clears the process-global histogram between tests.
func resetHTTPMetrics(t *testing.T, conf MetricsConfig) {
	t.Helper()
	_, err := registerHttpMetrics(conf)
	if err == nil {
		return
	}
	are, ok := err.(prometheus.AlreadyRegisteredError)
	require.True(t, ok, "unexpected error %v", err)
	are.ExistingCollector.(*prometheus.HistogramVec).Reset()
}
