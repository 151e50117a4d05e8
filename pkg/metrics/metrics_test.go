package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordex/aggregator/pkg/metrics"
	"github.com/tutordex/aggregator/pkg/queue"
)

type fakeExecutor struct {
	result *queue.ExecutionResult
}

func (f *fakeExecutor) Execute(ctx context.Context, job *queue.Job) *queue.ExecutionResult {
	return f.result
}

func scrape(t *testing.T, reg *metrics.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestInstrumentExecutor_RecordsDoneAndLatency(t *testing.T) {
	reg := metrics.New()
	inner := &fakeExecutor{result: &queue.ExecutionResult{
		Status:    queue.StatusDone,
		MetaPatch: map[string]interface{}{"llm_latency_ms": int64(1500)},
	}}
	wrapped := reg.InstrumentExecutor("v1", inner)

	result := wrapped.Execute(context.Background(), &queue.Job{ID: "job:v1:raw-1"})
	require.Equal(t, queue.StatusDone, result.Status)

	body := scrape(t, reg)
	assert.Contains(t, body, `tutordex_jobs_claimed_total{pipeline_version="v1"} 1`)
	assert.Contains(t, body, "tutordex_jobs_done_total 1")
	assert.Contains(t, body, "tutordex_llm_latency_seconds")
}

func TestInstrumentExecutor_RecordsFailedByKind(t *testing.T) {
	reg := metrics.New()
	inner := &fakeExecutor{result: &queue.ExecutionResult{
		Status:    queue.StatusFailed,
		ErrorKind: "llm_timeout",
	}}
	wrapped := reg.InstrumentExecutor("v1", inner)

	wrapped.Execute(context.Background(), &queue.Job{ID: "job:v1:raw-2"})

	body := scrape(t, reg)
	assert.Contains(t, body, `tutordex_jobs_failed_total{kind="llm_timeout"} 1`)
}

func TestInstrumentExecutor_RecordsSkippedByReason(t *testing.T) {
	reg := metrics.New()
	inner := &fakeExecutor{result: &queue.ExecutionResult{
		Status:    queue.StatusSkipped,
		MetaPatch: map[string]interface{}{"skip_reason": "too_short"},
	}}
	wrapped := reg.InstrumentExecutor("v1", inner)

	wrapped.Execute(context.Background(), &queue.Job{ID: "job:v1:raw-3"})

	body := scrape(t, reg)
	assert.Contains(t, body, `tutordex_jobs_skipped_total{reason="too_short"} 1`)
}

func TestInstrumentExecutor_NilRegistryPassesThrough(t *testing.T) {
	var reg *metrics.Registry
	inner := &fakeExecutor{result: &queue.ExecutionResult{Status: queue.StatusDone}}
	wrapped := reg.InstrumentExecutor("v1", inner)

	result := wrapped.Execute(context.Background(), &queue.Job{})
	assert.Equal(t, queue.StatusDone, result.Status)
}

func TestHandler_NilRegistryIsNotFound(t *testing.T) {
	var reg *metrics.Registry
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ExposesGoAndProcessCollectors(t *testing.T) {
	reg := metrics.New()
	body := scrape(t, reg)
	assert.True(t, strings.Contains(body, "go_goroutines") || strings.Contains(body, "go_gc_duration_seconds"))
}
