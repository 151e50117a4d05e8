package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tutordex/aggregator/pkg/config"
)

// WorkerStatus represents the current state of a worker task slot.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker is a single queue worker that polls for and processes extraction
// jobs, claiming up to config.ClaimBatch jobs per poll and running them
// sequentially (C9 delivery is fired off as its own bounded, best-effort
// background task per spec §4.10).
type Worker struct {
	id       string
	queue    *Queue
	config   *config.QueueConfig
	executor ExtractionExecutor
	deliver  func(job *Job, result *ExecutionResult)
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.RWMutex
	status       WorkerStatus
	currentJobID string
	jobsDone     int
	lastActivity time.Time
}

// NewWorker creates a new queue worker. deliver, if non-nil, is invoked
// fire-and-forget after a job is completed with status done — it is the C9
// delivery hook and its failures never affect job status (spec §4.9).
func NewWorker(id string, q *Queue, cfg *config.QueueConfig, executor ExtractionExecutor, deliver func(job *Job, result *ExecutionResult)) *Worker {
	return &Worker{
		id:           id,
		queue:        q,
		config:       cfg,
		executor:     executor,
		deliver:      deliver,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish its current
// batch. Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// RunOnce claims and processes a single batch synchronously, without
// starting the poll loop goroutine. It returns ErrNoJobsAvailable when
// the queue is empty, exactly as pollAndProcess does — the "worker
// oneshot" CLI entrypoint (spec §6) uses this to claim-process-exit once
// rather than running as a long-lived process.
func (w *Worker) RunOnce(ctx context.Context) error {
	return w.pollAndProcess(ctx)
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:           w.id,
		Status:       string(w.status),
		CurrentJobID: w.currentJobID,
		JobsDone:     w.jobsDone,
		LastActivity: w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("Worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("Worker shutting down")
			return
		case <-ctx.Done():
			log.Info("Context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoJobsAvailable) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("Error during claim", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess claims a batch of jobs and processes them sequentially.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	jobs, err := w.queue.Claim(ctx, w.id, w.config.ClaimBatch)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		select {
		case <-w.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}
		w.processOne(ctx, job)
	}
	return nil
}

// processOne runs C4->C8 synchronously for one claimed job, completes it,
// then fires C9 delivery as a non-blocking background task.
func (w *Worker) processOne(ctx context.Context, job *Job) {
	log := slog.With("job_id", job.ID, "raw_id", job.RawID, "worker_id", w.id)
	log.Info("Job claimed")

	w.setStatus(WorkerStatusWorking, job.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	result := w.executor.Execute(ctx, job)
	if result == nil {
		result = &ExecutionResult{
			Status:    StatusFailed,
			ErrorKind: "executor_nil_result",
			ErrorMsg:  "executor returned a nil result",
		}
	}

	if err := w.queue.Complete(context.Background(), job.ID, w.id, result.Status, result.MetaPatch, result.ErrorKind, result.ErrorMsg); err != nil {
		log.Error("Failed to complete job", "error", err)
		return
	}

	w.mu.Lock()
	w.jobsDone++
	w.mu.Unlock()

	log.Info("Job processing complete", "status", result.Status)

	if w.deliver != nil && result.Status == StatusDone {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Delivery hook panicked", "job_id", job.ID, "panic", fmt.Sprint(r))
				}
			}()
			w.deliver(job, result)
		}()
	}
}

// pollInterval returns the idle poll duration with jitter, bounded by
// config.IdleMaxSeconds.
func (w *Worker) pollInterval() time.Duration {
	max := w.config.IdleMaxSeconds
	if max <= 0 {
		return time.Second
	}
	return time.Duration(rand.Int64N(int64(max)))
}

func (w *Worker) setStatus(status WorkerStatus, jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentJobID = jobID
	w.lastActivity = time.Now()
}
