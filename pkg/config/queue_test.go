package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 5, cfg.ClaimBatch)
	assert.Equal(t, 10*time.Second, cfg.IdleMaxSeconds)
	assert.Equal(t, 10*time.Minute, cfg.StaleAfterSeconds)
	assert.Equal(t, 1*time.Minute, cfg.StaleSweepSeconds)
	assert.Equal(t, 30*time.Second, cfg.ShutdownGraceSeconds)
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestValidateQueue(t *testing.T) {
	tests := []struct {
		name    string
		queue   *QueueConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid defaults",
			queue:   DefaultQueueConfig(),
			wantErr: false,
		},
		{
			name:    "nil queue",
			queue:   nil,
			wantErr: true,
			errMsg:  "queue configuration is nil",
		},
		{
			name: "workers too low",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.Workers = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "workers",
		},
		{
			name: "workers too high",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.Workers = 51
				return q
			}(),
			wantErr: true,
			errMsg:  "workers",
		},
		{
			name: "claim batch zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.ClaimBatch = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "claim_batch",
		},
		{
			name: "idle max seconds zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.IdleMaxSeconds = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "idle_max_s",
		},
		{
			name: "stale after seconds zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.StaleAfterSeconds = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "stale_after_s",
		},
		{
			name: "stale sweep seconds zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.StaleSweepSeconds = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "stale_sweep_s",
		},
		{
			name: "shutdown grace seconds zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.ShutdownGraceSeconds = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "shutdown_grace_s",
		},
		{
			name: "max attempts zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.MaxAttempts = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "max_attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Queue: tt.queue}
			v := NewValidator(cfg)
			err := v.validateQueue()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
