package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.scansTotal)
	assert.NotNil(t, collector.bugsTotal)
	assert.NotNil(t, collector.oracleCalls)
	assert.NotNil(t, collector.httpRequestsTotal)
}

func TestCollector_RecordScan(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordScan("completed", 90*time.Second)
	collector.RecordScan("failed", 5*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.scansTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.scansTotal.WithLabelValues("failed")))
}

func TestCollector_RecordBug(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordBug("High")
	collector.RecordBug("High")
	collector.RecordBug("Low")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.bugsTotal.WithLabelValues("High")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.bugsTotal.WithLabelValues("Low")))
}

func TestCollector_RecordWorkflow(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordWorkflow("form-tester", true)
	collector.RecordWorkflow("form-tester", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.workflowsRun.WithLabelValues("form-tester", "pass")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.workflowsRun.WithLabelValues("form-tester", "fail")))
}

func TestCollector_RecordOracleCall(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordOracleCall("ok", 2*time.Second)
	collector.RecordOracleCall("ok", 3*time.Second)
	collector.RecordOracleCall("rate_limited", 15*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.oracleCalls.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.oracleCalls.WithLabelValues("rate_limited")))
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/api/v1/scans", 202, 10*time.Millisecond)
	collector.RecordHTTPRequest("POST", "/api/v1/scans", 409, 1*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Equal(t, 2, count)
}
