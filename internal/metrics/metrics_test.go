package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("block", 10*time.Millisecond, nil)
	m.ObserveRequest("block", 10*time.Millisecond, errors.New("boom"))
	m.BlockScanned()
	m.BlockScanned()
	m.RecordFound()
	m.RecordSkipped("not_owned")
	m.ScanFinished(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("block", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("block", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.blocksScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsSkipped.WithLabelValues("not_owned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("ok")))

	count, err := testutil.GatherAndCount(reg, "aleo_client_request_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("block", time.Second, nil)
		m.BlockScanned()
		m.RecordFound()
		m.RecordSkipped("malformed")
		m.ScanFinished(errors.New("x"))
	})
}
