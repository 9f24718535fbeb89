package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePersist("records", nil)
	m.SetCollectionSize("records", 3)
	m.ObserveHTTP("GET", "/api/records", 200, time.Millisecond)
	m.ObserveCache(true)
	m.ObservePublish(nil)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersistCounters(t *testing.T) {
	m := New()
	m.ObservePersist("records", nil)
	m.ObservePersist("records", nil)
	m.ObservePersist("records", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.persists.WithLabelValues("records", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persists.WithLabelValues("records", ResultError)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SetCollectionSize("tags", 8)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `moneytracker_collection_size{namespace="tags"} 8`), body)
}
