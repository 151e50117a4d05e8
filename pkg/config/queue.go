package config

import "time"

// QueueConfig contains worker-pool and stale-recovery settings for the
// extraction queue (spec §4.10, §6 "workers, claim_batch, idle_max_s,
// stale_after_s, shutdown_grace_s").
type QueueConfig struct {
	// Workers is the number of concurrent extraction tasks per process.
	Workers int `yaml:"workers"`

	// ClaimBatch is how many pending jobs a single claim call pulls at once.
	ClaimBatch int `yaml:"claim_batch"`

	// IdleMaxSeconds bounds the jittered backoff applied when claim()
	// returns no jobs.
	IdleMaxSeconds time.Duration `yaml:"idle_max_s"`

	// StaleAfterSeconds is the age after which a processing job is
	// considered abandoned and returned to pending by requeue_stale.
	StaleAfterSeconds time.Duration `yaml:"stale_after_s"`

	// StaleSweepSeconds is how often requeue_stale runs in the background.
	StaleSweepSeconds time.Duration `yaml:"stale_sweep_s"`

	// ShutdownGraceSeconds bounds how long graceful shutdown waits for
	// in-flight jobs before marking them failed with kind=shutdown.
	ShutdownGraceSeconds time.Duration `yaml:"shutdown_grace_s"`

	// MaxAttempts bounds retries; attempts >= MaxAttempts makes the job
	// terminally failed instead of eligible for another stale requeue.
	MaxAttempts int `yaml:"max_attempts"`
}

// DefaultQueueConfig returns the built-in orchestrator defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		Workers:              5,
		ClaimBatch:           5,
		IdleMaxSeconds:       10 * time.Second,
		StaleAfterSeconds:    10 * time.Minute,
		StaleSweepSeconds:    1 * time.Minute,
		ShutdownGraceSeconds: 30 * time.Second,
		MaxAttempts:          5,
	}
}
