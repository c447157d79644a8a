package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
)

func TestObservePrediction(t *testing.T) {
	m := New()
	m.ObservePrediction("ok", 2*time.Millisecond)
	m.ObservePrediction("ok", time.Millisecond)
	m.ObservePrediction("invalid_input", time.Millisecond)
	m.ObserveFallback("station")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("invalid_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("station")))
}

func TestObserveReport(t *testing.T) {
	m := New()
	r := pipeline.NewReport("run")
	r.RawRecords = 10
	r.Facts = 7
	r.TrainingRows = 7
	r.Drops[pipeline.DropPrice] = 2
	r.Drops[pipeline.DropJoinMiss] = 1

	m.ObserveReport(r)
	m.ObserveReport(r)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.PipelineDrops.WithLabelValues("price")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PipelineDrops.WithLabelValues("join_miss")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.PipelineRows.WithLabelValues("raw")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PipelineRows.WithLabelValues("training")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RateLimited.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mansion_rate_limited_requests_total 1"))
}
