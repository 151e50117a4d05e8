package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tutordex/aggregator/pkg/config"
)

// WorkerPool is the Worker Orchestrator (C10): a fixed-size pool of queue
// workers plus the background stale-job sweep and graceful shutdown.
type WorkerPool struct {
	id       string
	queue    *Queue
	config   *config.QueueConfig
	executor ExtractionExecutor
	deliver  func(job *Job, result *ExecutionResult)
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	sweep sweepState
}

// sweepState tracks stale-sweep metrics (thread-safe).
type sweepState struct {
	mu             sync.Mutex
	lastSweep      time.Time
	totalRecovered int
}

// NewWorkerPool creates a new worker pool. id identifies this process for
// claimed_by attribution (e.g. "host-pid" or a configured worker name).
func NewWorkerPool(id string, q *Queue, cfg *config.QueueConfig, executor ExtractionExecutor, deliver func(job *Job, result *ExecutionResult)) *WorkerPool {
	return &WorkerPool{
		id:       id,
		queue:    q,
		config:   cfg,
		executor: executor,
		deliver:  deliver,
		workers:  make([]*Worker, 0, cfg.Workers),
		stopCh:   make(chan struct{}),
	}
}

// Start spawns worker goroutines and the stale-sweep background task. Safe
// to call multiple times; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.started {
		slog.Warn("Worker pool already started, ignoring duplicate Start call", "id", p.id)
		return nil
	}
	p.started = true

	slog.Info("Starting worker pool", "id", p.id, "worker_count", p.config.Workers)

	for i := 0; i < p.config.Workers; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.id, i)
		worker := NewWorker(workerID, p.queue, p.config, p.executor, p.deliver)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runStaleSweep(ctx)
	}()

	slog.Info("Worker pool started")
	return nil
}

// Stop performs a graceful shutdown: signals workers to finish their
// current job, waiting up to config.ShutdownGraceSeconds. Workers still
// in-flight past the grace period are left for the next requeue_stale
// sweep to recover (spec §4.10).
func (p *WorkerPool) Stop() {
	slog.Info("Stopping worker pool gracefully")

	done := make(chan struct{})
	go func() {
		for _, worker := range p.workers {
			worker.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker pool stopped gracefully")
	case <-time.After(p.config.ShutdownGraceSeconds):
		slog.Warn("Shutdown grace period elapsed with workers still in-flight; " +
			"marking them failed with kind=shutdown")
		p.failInFlight()
		<-done
	}

	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// failInFlight marks every job still claimed by a worker as failed with
// kind=shutdown once the grace period has elapsed, so requeue_stale picks
// it up on its own schedule rather than waiting for stale_after_s to pass
// from the original claim time (spec §4.10).
func (p *WorkerPool) failInFlight() {
	for _, worker := range p.workers {
		stats := worker.Health()
		if stats.CurrentJobID == "" {
			continue
		}
		err := p.queue.Complete(context.Background(), stats.CurrentJobID, stats.ID, StatusFailed, nil,
			"shutdown", "worker pool shutdown grace period elapsed")
		if err != nil && !errors.Is(err, ErrNotProcessing) {
			slog.Error("Failed to mark in-flight job failed on shutdown",
				"job_id", stats.CurrentJobID, "worker_id", stats.ID, "error", err)
		}
	}
}

// runStaleSweep periodically reclaims processing jobs abandoned by a
// crashed or slow worker. All pool instances run this independently —
// RequeueStale is idempotent.
func (p *WorkerPool) runStaleSweep(ctx context.Context) {
	ticker := time.NewTicker(p.config.StaleSweepSeconds)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.sweepOnce(ctx)
		}
	}
}

func (p *WorkerPool) sweepOnce(ctx context.Context) {
	n, err := p.queue.RequeueStale(ctx, p.config.StaleAfterSeconds, p.config.MaxAttempts)
	if err != nil {
		slog.Error("Stale sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Warn("Recovered stale jobs", "count", n)
	}

	p.sweep.mu.Lock()
	p.sweep.lastSweep = time.Now()
	p.sweep.totalRecovered += n
	p.sweep.mu.Unlock()
}

// Health returns the current health status of the pool.
func (p *WorkerPool) Health(ctx context.Context) *PoolHealth {
	counts, err := p.queue.Counts(ctx)
	dbHealthy := err == nil
	var dbError string
	if err != nil {
		dbError = err.Error()
	}

	age, ageErr := p.queue.OldestPendingAgeSeconds(ctx)
	if ageErr != nil {
		dbHealthy = false
		if dbError == "" {
			dbError = ageErr.Error()
		}
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	p.sweep.mu.Lock()
	lastSweep := p.sweep.lastSweep
	totalRecovered := p.sweep.totalRecovered
	p.sweep.mu.Unlock()

	return &PoolHealth{
		IsHealthy:        len(p.workers) > 0 && dbHealthy,
		DBReachable:      dbHealthy,
		DBError:          dbError,
		WorkerID:         p.id,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		QueueDepth:       counts.Pending,
		OldestPendingAge: age,
		WorkerStats:      workerStats,
		LastStaleSweep:   lastSweep,
		StaleRecovered:   totalRecovered,
	}
}
