// Package queue is the Queue Adapter (C2) and Worker Orchestrator (C10): a
// claim-check queue over extraction_jobs plus the bounded-concurrency pool
// that drives claimed jobs through an injected ExtractionExecutor.
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrNoJobsAvailable indicates claim() found no pending jobs.
	ErrNoJobsAvailable = errors.New("queue: no jobs available")

	// ErrAtCapacity indicates the worker pool has no free slot.
	ErrAtCapacity = errors.New("queue: at capacity")

	// ErrClaimMismatch is returned by complete() when the caller does not
	// hold the job's claim (spec §4.2 failure contract).
	ErrClaimMismatch = errors.New("queue: claimed_by mismatch")

	// ErrNotProcessing is returned by complete() when the job is not in
	// the processing state.
	ErrNotProcessing = errors.New("queue: job is not processing")
)

// Status is an ExtractionJob lifecycle state (spec §3).
type Status string

// ExtractionJob status constants.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Job is the runtime representation of an extraction_jobs row.
type Job struct {
	ID              string
	RawID           string
	PipelineVersion string
	Status          Status
	ClaimedAt       *time.Time
	ClaimedBy       *string
	Attempts        int
	LastErrorKind   *string
	LastErrorMsg    *string
	Meta            map[string]interface{}
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Counts is the result of queue_counts() (spec §4.2).
type Counts struct {
	Pending    int
	Processing int
	Done       int
	Failed     int
	Skipped    int
}

// ExtractionExecutor is the interface for extraction-job processing. It
// owns the C4->C9 pipeline for a single job; the worker only handles
// claiming, terminal status update, and stale-job recovery. Mirrors the
// teacher's SessionExecutor decoupling (pkg/queue/types.go in tarsy).
type ExtractionExecutor interface {
	Execute(ctx context.Context, job *Job) *ExecutionResult
}

// ExecutionResult is the terminal outcome of one executor run.
type ExecutionResult struct {
	Status    Status // done, failed, or skipped
	MetaPatch map[string]interface{}
	ErrorKind string
	ErrorMsg  string

	// DeliveryContext is opaque to the queue package: an executor may
	// stash whatever it needs to run C9 here, and the worker pool hands
	// it back untouched to the deliver callback once the job's terminal
	// status is durably persisted. Nil means "nothing to deliver".
	DeliveryContext interface{}
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	DBReachable      bool           `json:"db_reachable"`
	DBError          string         `json:"db_error,omitempty"`
	WorkerID         string         `json:"worker_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	QueueDepth       int            `json:"queue_depth"`
	OldestPendingAge float64        `json:"oldest_pending_age_seconds"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastStaleSweep   time.Time      `json:"last_stale_sweep"`
	StaleRecovered   int            `json:"stale_recovered"`
}

// WorkerHealth contains health information for a single worker task slot.
type WorkerHealth struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"` // "idle" or "working"
	CurrentJobID string    `json:"current_job_id,omitempty"`
	JobsDone     int       `json:"jobs_done"`
	LastActivity time.Time `json:"last_activity"`
}
