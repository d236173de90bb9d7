package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpstreamRequestOutcomes(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.RecordUpstreamRequest("example.org", true)
	c.RecordUpstreamRequest("example.org", true)
	c.RecordUpstreamRequest("example.org", false)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.UpstreamRequestsTotal.WithLabelValues("example.org", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.UpstreamRequestsTotal.WithLabelValues("example.org", "error")))
}

func TestRecordOperation(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.RecordOperation("current_weather", time.Now(), nil)
	c.RecordOperation("current_weather", time.Now(), errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.OperationsTotal.WithLabelValues("current_weather", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.OperationsTotal.WithLabelValues("current_weather", "error")))
}

func TestCacheCounters(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	assert.Equal(t, float64(2), testutil.ToFloat64(c.CacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.CacheMissesTotal))
}
