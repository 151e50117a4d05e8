package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordex/aggregator/pkg/config"
	"github.com/tutordex/aggregator/pkg/queue"
	testdb "github.com/tutordex/aggregator/test/database"
)

type fixedExecutor struct {
	result *queue.ExecutionResult
}

func (f *fixedExecutor) Execute(ctx context.Context, job *queue.Job) *queue.ExecutionResult {
	return f.result
}

func TestWorker_RunOnce_ProcessesOneBatchThenReturns(t *testing.T) {
	client := testdb.NewTestClient(t)
	q := queue.New(client.Pool)
	ctx := context.Background()

	seedRaw(t, client, "raw-oneshot-1")
	_, _, err := q.Enqueue(ctx, "raw-oneshot-1", "v1", "tail")
	require.NoError(t, err)

	cfg := config.DefaultQueueConfig()
	cfg.ClaimBatch = 5
	executor := &fixedExecutor{result: &queue.ExecutionResult{Status: queue.StatusDone}}
	worker := queue.NewWorker("oneshot-worker", q, cfg, executor, nil)

	require.NoError(t, worker.RunOnce(ctx))

	counts, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Done)
	assert.Equal(t, 0, counts.Pending)
}

func TestWorker_RunOnce_ReturnsErrNoJobsAvailableWhenEmpty(t *testing.T) {
	client := testdb.NewTestClient(t)
	q := queue.New(client.Pool)
	ctx := context.Background()

	cfg := config.DefaultQueueConfig()
	executor := &fixedExecutor{result: &queue.ExecutionResult{Status: queue.StatusDone}}
	worker := queue.NewWorker("oneshot-worker-empty", q, cfg, executor, nil)

	err := worker.RunOnce(ctx)
	assert.ErrorIs(t, err, queue.ErrNoJobsAvailable)
}

func TestWorker_Stop_WaitsForInFlightDelivery(t *testing.T) {
	client := testdb.NewTestClient(t)
	q := queue.New(client.Pool)
	ctx := context.Background()

	seedRaw(t, client, "raw-oneshot-2")
	_, _, err := q.Enqueue(ctx, "raw-oneshot-2", "v1", "tail")
	require.NoError(t, err)

	cfg := config.DefaultQueueConfig()
	executor := &fixedExecutor{result: &queue.ExecutionResult{Status: queue.StatusDone}}

	var mu sync.Mutex
	delivered := false
	deliver := func(job *queue.Job, result *queue.ExecutionResult) {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		delivered = true
		mu.Unlock()
	}

	worker := queue.NewWorker("oneshot-worker-deliver", q, cfg, executor, deliver)
	require.NoError(t, worker.RunOnce(ctx))

	worker.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, delivered, "Stop must block until the delivery goroutine finishes")
}

func TestWorker_Health_ReflectsIdleAfterProcessing(t *testing.T) {
	client := testdb.NewTestClient(t)
	q := queue.New(client.Pool)
	ctx := context.Background()

	seedRaw(t, client, "raw-oneshot-3")
	_, _, err := q.Enqueue(ctx, "raw-oneshot-3", "v1", "tail")
	require.NoError(t, err)

	cfg := config.DefaultQueueConfig()
	executor := &fixedExecutor{result: &queue.ExecutionResult{Status: queue.StatusDone}}
	worker := queue.NewWorker("health-worker", q, cfg, executor, nil)

	require.NoError(t, worker.RunOnce(ctx))

	health := worker.Health()
	assert.Equal(t, string(queue.WorkerStatusIdle), health.Status)
	assert.Equal(t, 1, health.JobsDone)
}
