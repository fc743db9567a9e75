package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.Analysis(OutcomeSuccess, 20*time.Millisecond)
	r.Analysis(OutcomeFailure, time.Millisecond)
	r.Analysis(OutcomeSuccess, time.Millisecond)
	r.Anomalies("price", 2)
	r.Anomalies("rating", 0)
	r.NotificationFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.anomalies.WithLabelValues("price")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notificationFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "csvsentry_analysis_duration_seconds_count 3")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Analysis(OutcomeSuccess, time.Second)
		r.Anomalies("price", 1)
		r.NotificationFailed()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.Analysis(OutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `csvsentry_analyses_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
