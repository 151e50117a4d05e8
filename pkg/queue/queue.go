package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queue is the Queue Adapter (C2): enqueue/claim/complete/requeue-stale
// semantics over the extraction_jobs table, implemented as plain pgx SQL
// rather than a database stored procedure (spec §4.2 names the latter as
// typical; see DESIGN.md Open Questions for why a single
// UPDATE ... FOR UPDATE SKIP LOCKED ... RETURNING statement was chosen
// instead, mirroring the teacher's claimNextSession in pkg/queue/worker.go).
type Queue struct {
	pool *pgxpool.Pool
}

// New creates a Queue backed by the given pool.
func New(pool *pgxpool.Pool) *Queue {
	return &Queue{pool: pool}
}

// Enqueue inserts a job for (rawID, pipelineVersion), or is a no-op if one
// already exists. source ("tail" or "backfill") is stamped into the job's
// initial meta so the extraction executor can tell C9 to skip delivery
// for backfilled jobs (spec §4.9 "backfills never broadcast or DM")
// without threading a separate column through Claim.
func (q *Queue) Enqueue(ctx context.Context, rawID, pipelineVersion, source string) (jobID string, existing bool, err error) {
	const q1 = `
		INSERT INTO extraction_jobs (job_id, raw_id, pipeline_version, meta, created_at, updated_at)
		VALUES ($1, $2, $3, jsonb_build_object('source', $4::text), now(), now())
		ON CONFLICT (raw_id, pipeline_version) DO NOTHING
		RETURNING job_id`

	newID := fmt.Sprintf("job:%s:%s", pipelineVersion, rawID)
	var returnedID string
	err = q.pool.QueryRow(ctx, q1, newID, rawID, pipelineVersion, source).Scan(&returnedID)
	if err == nil {
		return returnedID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("queue: enqueue: %w", err)
	}

	const q2 = `SELECT job_id FROM extraction_jobs WHERE raw_id = $1 AND pipeline_version = $2`
	if err := q.pool.QueryRow(ctx, q2, rawID, pipelineVersion).Scan(&returnedID); err != nil {
		return "", false, fmt.Errorf("queue: enqueue: lookup existing: %w", err)
	}
	return returnedID, true, nil
}

// Claim atomically transitions up to batchSize oldest pending jobs to
// processing, stamping claimed_by/claimed_at. Never returns a job already
// claimed by another worker (FOR UPDATE SKIP LOCKED).
func (q *Queue) Claim(ctx context.Context, workerID string, batchSize int) ([]*Job, error) {
	const stmt = `
		UPDATE extraction_jobs SET
			status = 'processing',
			claimed_by = $1,
			claimed_at = now(),
			updated_at = now()
		WHERE job_id IN (
			SELECT job_id FROM extraction_jobs
			WHERE status = 'pending'
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING job_id, raw_id, pipeline_version, status, claimed_at, claimed_by,
		          attempts, last_error_kind, last_error_msg, meta, created_at, updated_at`

	rows, err := q.pool.Query(ctx, stmt, workerID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("queue: claim: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("queue: claim: scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue: claim: %w", err)
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobsAvailable
	}
	return jobs, nil
}

// Complete performs the terminal transition for a job the caller holds the
// claim for. Rejected if the row isn't processing or claimed_by doesn't
// match (spec §4.2 failure contract — prevents double-completion after a
// stale requeue handed the job to someone else).
func (q *Queue) Complete(ctx context.Context, jobID, workerID string, status Status, metaPatch map[string]interface{}, errorKind, errorMsg string) error {
	if status != StatusDone && status != StatusFailed && status != StatusSkipped {
		return fmt.Errorf("queue: complete: invalid terminal status %q", status)
	}

	patchJSON, err := json.Marshal(metaPatch)
	if err != nil {
		return fmt.Errorf("queue: complete: marshal meta patch: %w", err)
	}

	const stmt = `
		UPDATE extraction_jobs SET
			status = $1,
			last_error_kind = NULLIF($2, ''),
			last_error_msg = NULLIF($3, ''),
			meta = meta || $4::jsonb,
			updated_at = now()
		WHERE job_id = $5 AND status = 'processing' AND claimed_by = $6`

	tag, err := q.pool.Exec(ctx, stmt, status, errorKind, errorMsg, patchJSON, jobID, workerID)
	if err != nil {
		return fmt.Errorf("queue: complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return q.diagnoseCompleteFailure(ctx, jobID, workerID)
	}
	return nil
}

// diagnoseCompleteFailure distinguishes "not processing" from "claimed by
// someone else" after an Exec affected zero rows.
func (q *Queue) diagnoseCompleteFailure(ctx context.Context, jobID, workerID string) error {
	var status Status
	var claimedBy *string
	const q1 = `SELECT status, claimed_by FROM extraction_jobs WHERE job_id = $1`
	if err := q.pool.QueryRow(ctx, q1, jobID).Scan(&status, &claimedBy); err != nil {
		return fmt.Errorf("queue: complete: job %s not found: %w", jobID, err)
	}
	if status != StatusProcessing {
		return ErrNotProcessing
	}
	if claimedBy == nil || *claimedBy != workerID {
		return ErrClaimMismatch
	}
	return fmt.Errorf("queue: complete: unexpected state for job %s", jobID)
}

// RequeueStale returns any processing job whose claimed_at is older than
// staleAfter, and any job failed with kind=shutdown, back to pending,
// incrementing attempts. A job whose
// incremented attempts reaches maxAttempts is instead marked terminally
// failed (spec Lifecycle + QueueConfig.MaxAttempts, see DESIGN.md Open
// Questions). Returns the number of jobs affected.
func (q *Queue) RequeueStale(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int, error) {
	const stmt = `
		UPDATE extraction_jobs SET
			status = CASE WHEN attempts + 1 >= $1 THEN 'failed' ELSE 'pending' END,
			attempts = attempts + 1,
			claimed_by = NULL,
			claimed_at = NULL,
			last_error_kind = CASE WHEN attempts + 1 >= $1 THEN 'stale_requeue_exhausted' ELSE last_error_kind END,
			last_error_msg = CASE WHEN attempts + 1 >= $1 THEN 'exceeded max_attempts after repeated stale requeues' ELSE last_error_msg END,
			updated_at = now()
		WHERE (status = 'processing' AND claimed_at < now() - $2::interval)
		   OR (status = 'failed' AND last_error_kind = 'shutdown')`

	tag, err := q.pool.Exec(ctx, stmt, maxAttempts, fmt.Sprintf("%d seconds", int(staleAfter.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("queue: requeue_stale: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Counts returns queue_counts() (spec §4.2).
func (q *Queue) Counts(ctx context.Context) (Counts, error) {
	const stmt = `SELECT status, count(*) FROM extraction_jobs GROUP BY status`
	rows, err := q.pool.Query(ctx, stmt)
	if err != nil {
		return Counts{}, fmt.Errorf("queue: queue_counts: %w", err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, fmt.Errorf("queue: queue_counts: scan: %w", err)
		}
		switch status {
		case StatusPending:
			c.Pending = n
		case StatusProcessing:
			c.Processing = n
		case StatusDone:
			c.Done = n
		case StatusFailed:
			c.Failed = n
		case StatusSkipped:
			c.Skipped = n
		}
	}
	return c, rows.Err()
}

// OldestPendingAgeSeconds returns the age in seconds of the oldest pending
// job, or 0 if the queue has no pending jobs.
func (q *Queue) OldestPendingAgeSeconds(ctx context.Context) (float64, error) {
	const stmt = `SELECT COALESCE(EXTRACT(EPOCH FROM (now() - min(created_at))), 0) FROM extraction_jobs WHERE status = 'pending'`
	var age float64
	if err := q.pool.QueryRow(ctx, stmt).Scan(&age); err != nil {
		return 0, fmt.Errorf("queue: oldest_pending_age_seconds: %w", err)
	}
	return age, nil
}

func scanJob(rows pgx.Rows) (*Job, error) {
	var j Job
	var metaJSON []byte
	if err := rows.Scan(
		&j.ID, &j.RawID, &j.PipelineVersion, &j.Status, &j.ClaimedAt, &j.ClaimedBy,
		&j.Attempts, &j.LastErrorKind, &j.LastErrorMsg, &metaJSON, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &j.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return &j, nil
}
