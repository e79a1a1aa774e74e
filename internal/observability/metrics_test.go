package observability

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterVecConcurrent(t *testing.T) {
	cv := NewCounterVec()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cv.Inc("success")
				cv.Inc("failed")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), cv.Get("success"))
	assert.Equal(t, int64(1000), cv.Get("failed"))
	assert.Zero(t, cv.Get("skipped"))

	snap := cv.Snapshot()
	assert.Equal(t, int64(1000), snap["success"])
}

func TestHistogramPercentiles(t *testing.T) {
	h := NewHistogram()
	for i := 1; i <= 100; i++ {
		h.Observe(float64(i))
	}

	snap := h.Snapshot()
	assert.Equal(t, 100, snap.Count)
	assert.InDelta(t, 50.5, snap.Mean, 1e-9)
	assert.InDelta(t, 50.5, snap.P50, 1e-9)
	assert.InDelta(t, 95.05, snap.P95, 1e-9)
	assert.InDelta(t, 100.0, snap.Max, 1e-9)
}

func TestHistogramEmpty(t *testing.T) {
	h := NewHistogram()
	snap := h.Snapshot()
	assert.Zero(t, snap.Count)
	assert.Zero(t, snap.Max)
}

func TestAtomicGauge(t *testing.T) {
	g := NewAtomicGauge()
	g.Add(3)
	g.Add(-1)
	assert.Equal(t, int64(2), g.Get())
	g.Set(7)
	assert.Equal(t, int64(7), g.Get())
}

func TestMetricsServeHTTP(t *testing.T) {
	m := NewMetrics()
	m.HealAttempts().Inc("success")
	m.HealLatency().Observe(12.5)
	m.RunsRecorded().Inc("pass")
	m.Classifications().Inc("flaky")
	m.QuarantineActive().Add(2)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap MetricsSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.HealAttempts["success"])
	assert.Equal(t, 1, snap.HealLatency.Count)
	assert.Equal(t, int64(1), snap.RunsRecorded["pass"])
	assert.Equal(t, int64(1), snap.Classifications["flaky"])
	assert.Equal(t, int64(2), snap.QuarantineActive)
}
