package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.FramesDecoded.WithLabelValues("legacy").Add(3)
	m.FramesDropped.WithLabelValues("profile", "missing_rssi").Inc()
	m.DevicesTracked.Set(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesDecoded.WithLabelValues("legacy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DevicesTracked))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gateway_frames_dropped_total{format="profile",reason="missing_rssi"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	a := New()
	b := New()
	assert.NotSame(t, a.Registry(), b.Registry())
}
