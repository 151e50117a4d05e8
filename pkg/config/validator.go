package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error).
func (v *Validator) ValidateAll() error {
	if v.cfg.PipelineVersion == "" {
		return NewValidationError("config", "", "pipeline_version", ErrMissingRequiredField)
	}

	if err := v.validateChannels(); err != nil {
		return fmt.Errorf("channel validation failed: %w", err)
	}

	if err := v.validateTelegram(); err != nil {
		return fmt.Errorf("telegram validation failed: %w", err)
	}

	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}

	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := v.validateFilter(); err != nil {
		return fmt.Errorf("filter validation failed: %w", err)
	}

	if err := v.validateEnrichment(); err != nil {
		return fmt.Errorf("enrichment validation failed: %w", err)
	}

	if err := v.validateDelivery(); err != nil {
		return fmt.Errorf("delivery validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateChannels() error {
	if len(v.cfg.Channels) == 0 {
		return ErrNoChannels
	}

	seen := make(map[int64]bool, len(v.cfg.Channels))
	for _, ch := range v.cfg.Channels {
		if ch.ChannelID == 0 {
			return NewValidationError("channel", ch.Username, "channel_id", ErrMissingRequiredField)
		}
		if seen[ch.ChannelID] {
			return NewValidationError("channel", ch.Username, "channel_id", fmt.Errorf("duplicate channel_id %d", ch.ChannelID))
		}
		seen[ch.ChannelID] = true

		if ch.BlocklistRegex != "" {
			if _, err := regexp.Compile(ch.BlocklistRegex); err != nil {
				return NewValidationError("channel", ch.Username, "blocklist_regex", err)
			}
		}
	}

	return nil
}

func (v *Validator) validateTelegram() error {
	t := v.cfg.Telegram
	if t == nil {
		return NewValidationError("telegram", "", "", fmt.Errorf("telegram configuration is required"))
	}

	if os.Getenv(t.APIIDEnv) == "" {
		return NewValidationError("telegram", "", "api_id_env", fmt.Errorf("environment variable %s is not set", t.APIIDEnv))
	}
	if os.Getenv(t.APIHashEnv) == "" {
		return NewValidationError("telegram", "", "api_hash_env", fmt.Errorf("environment variable %s is not set", t.APIHashEnv))
	}

	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l == nil {
		return fmt.Errorf("llm configuration is nil")
	}

	if l.APIURL == "" {
		return NewValidationError("llm", "", "api_url", ErrMissingRequiredField)
	}
	if _, err := url.Parse(l.APIURL); err != nil {
		return NewValidationError("llm", "", "api_url", err)
	}
	if l.Model == "" {
		return NewValidationError("llm", "", "model", ErrMissingRequiredField)
	}
	if l.MaxTokens < 1 {
		return NewValidationError("llm", "", "max_tokens", fmt.Errorf("must be at least 1, got %d", l.MaxTokens))
	}
	if l.Timeout <= 0 {
		return NewValidationError("llm", "", "timeout", fmt.Errorf("must be positive, got %v", l.Timeout))
	}
	if l.APIKeyEnv != "" && os.Getenv(l.APIKeyEnv) == "" {
		return NewValidationError("llm", "", "api_key_env", fmt.Errorf("environment variable %s is not set", l.APIKeyEnv))
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}

	if q.Workers < 1 || q.Workers > 50 {
		return NewValidationError("queue", "", "workers", fmt.Errorf("must be between 1 and 50, got %d", q.Workers))
	}
	if q.ClaimBatch < 1 {
		return NewValidationError("queue", "", "claim_batch", fmt.Errorf("must be at least 1, got %d", q.ClaimBatch))
	}
	if q.IdleMaxSeconds <= 0 {
		return NewValidationError("queue", "", "idle_max_s", fmt.Errorf("must be positive, got %v", q.IdleMaxSeconds))
	}
	if q.StaleAfterSeconds <= 0 {
		return NewValidationError("queue", "", "stale_after_s", fmt.Errorf("must be positive, got %v", q.StaleAfterSeconds))
	}
	if q.StaleSweepSeconds <= 0 {
		return NewValidationError("queue", "", "stale_sweep_s", fmt.Errorf("must be positive, got %v", q.StaleSweepSeconds))
	}
	if q.ShutdownGraceSeconds <= 0 {
		return NewValidationError("queue", "", "shutdown_grace_s", fmt.Errorf("must be positive, got %v", q.ShutdownGraceSeconds))
	}
	if q.MaxAttempts < 1 {
		return NewValidationError("queue", "", "max_attempts", fmt.Errorf("must be at least 1, got %d", q.MaxAttempts))
	}

	return nil
}

func (v *Validator) validateFilter() error {
	f := v.cfg.Filter
	if f == nil {
		return fmt.Errorf("filter configuration is nil")
	}

	if f.MinChars < 0 {
		return NewValidationError("filter", "", "min_chars", fmt.Errorf("must be non-negative, got %d", f.MinChars))
	}
	if f.CompilationThreshold < 1 {
		return NewValidationError("filter", "", "compilation_threshold", fmt.Errorf("must be at least 1, got %d", f.CompilationThreshold))
	}

	return nil
}

func (v *Validator) validateEnrichment() error {
	e := v.cfg.Enrichment
	if e == nil {
		return fmt.Errorf("enrichment configuration is nil")
	}

	if e.GeocodingEnabled {
		if e.GeocodingURL == "" {
			return NewValidationError("enrichment", "", "geocoding_url", fmt.Errorf("required when geocoding is enabled"))
		}
		if _, err := url.Parse(e.GeocodingURL); err != nil {
			return NewValidationError("enrichment", "", "geocoding_url", err)
		}
	}

	if e.DuplicateWindowMinutes < 1 {
		return NewValidationError("enrichment", "", "duplicate_window_minutes", fmt.Errorf("must be at least 1, got %d", e.DuplicateWindowMinutes))
	}
	if e.DuplicateConfidenceThreshold <= 0 || e.DuplicateConfidenceThreshold > 1 {
		return NewValidationError("enrichment", "", "duplicate_confidence_threshold", fmt.Errorf("must be in (0, 1], got %v", e.DuplicateConfidenceThreshold))
	}

	return nil
}

func (v *Validator) validateDelivery() error {
	d := v.cfg.Delivery
	if d == nil {
		return fmt.Errorf("delivery configuration is nil")
	}

	if d.BroadcastEnabled && v.cfg.Telegram.BroadcastChatID == 0 {
		return NewValidationError("delivery", "", "broadcast_enabled", fmt.Errorf("telegram.broadcast_chat_id is required when broadcast is enabled"))
	}

	if d.DMsEnabled {
		if d.MatcherURL == "" {
			return NewValidationError("delivery", "", "matcher_url", fmt.Errorf("required when DMs are enabled"))
		}
		if _, err := url.Parse(d.MatcherURL); err != nil {
			return NewValidationError("delivery", "", "matcher_url", err)
		}
		if d.MinMatchScore <= 0 || d.MinMatchScore > 1 {
			return NewValidationError("delivery", "", "min_match_score", fmt.Errorf("must be in (0, 1], got %v", d.MinMatchScore))
		}
		if d.DMRateLimitPerS <= 0 {
			return NewValidationError("delivery", "", "dm_rate_limit_per_s", fmt.Errorf("must be positive, got %v", d.DMRateLimitPerS))
		}
	}

	if d.JSONLSinkPath == "" {
		return NewValidationError("delivery", "", "jsonl_sink_path", ErrMissingRequiredField)
	}

	return nil
}
