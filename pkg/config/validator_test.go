package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		PipelineVersion: "v1",
		Channels: []ChannelConfig{
			{ChannelID: 1001, Username: "sgtutors"},
		},
		Telegram: &TelegramConfig{
			APIIDEnv:        "TELEGRAM_API_ID",
			APIHashEnv:      "TELEGRAM_API_HASH",
			BroadcastChatID: 2002,
		},
		LLM:        DefaultLLMConfig(),
		Queue:      DefaultQueueConfig(),
		Filter:     DefaultFilterConfig(),
		Enrichment: DefaultEnrichmentConfig(),
		Delivery:   DefaultDeliveryConfig(),
	}
}

func TestValidateAllAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIURL = "https://llm.internal/v1"
	cfg.LLM.Model = "test-model"
	cfg.LLM.APIKeyEnv = ""
	cfg.Delivery.MatcherURL = "https://matcher.internal"

	t.Setenv("TELEGRAM_API_ID", "123")
	t.Setenv("TELEGRAM_API_HASH", "abc")

	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateAllRejectsMissingPipelineVersion(t *testing.T) {
	cfg := validConfig()
	cfg.PipelineVersion = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline_version")
}

func TestValidateChannels(t *testing.T) {
	tests := []struct {
		name     string
		channels []ChannelConfig
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "no channels",
			channels: nil,
			wantErr:  true,
			errMsg:   "at least one channel",
		},
		{
			name:     "missing channel_id",
			channels: []ChannelConfig{{Username: "x"}},
			wantErr:  true,
			errMsg:   "channel_id",
		},
		{
			name: "duplicate channel_id",
			channels: []ChannelConfig{
				{ChannelID: 1, Username: "a"},
				{ChannelID: 1, Username: "b"},
			},
			wantErr: true,
			errMsg:  "duplicate channel_id",
		},
		{
			name:     "invalid blocklist regex",
			channels: []ChannelConfig{{ChannelID: 1, Username: "a", BlocklistRegex: "(unclosed"}},
			wantErr:  true,
			errMsg:   "blocklist_regex",
		},
		{
			name:     "valid channel",
			channels: []ChannelConfig{{ChannelID: 1, Username: "a", BlocklistRegex: "^ad:"}},
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Channels: tt.channels}
			err := NewValidator(cfg).validateChannels()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateTelegram(t *testing.T) {
	t.Run("nil telegram config", func(t *testing.T) {
		err := NewValidator(&Config{}).validateTelegram()
		require.Error(t, err)
	})

	t.Run("missing api id env", func(t *testing.T) {
		t.Setenv("TELEGRAM_API_HASH", "abc")
		cfg := &Config{Telegram: &TelegramConfig{APIIDEnv: "UNSET_VAR", APIHashEnv: "TELEGRAM_API_HASH"}}
		err := NewValidator(cfg).validateTelegram()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_id_env")
	})

	t.Run("missing api hash env", func(t *testing.T) {
		t.Setenv("TELEGRAM_API_ID", "123")
		cfg := &Config{Telegram: &TelegramConfig{APIIDEnv: "TELEGRAM_API_ID", APIHashEnv: "UNSET_VAR"}}
		err := NewValidator(cfg).validateTelegram()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_hash_env")
	})

	t.Run("both set passes", func(t *testing.T) {
		t.Setenv("TELEGRAM_API_ID", "123")
		t.Setenv("TELEGRAM_API_HASH", "abc")
		cfg := &Config{Telegram: &TelegramConfig{APIIDEnv: "TELEGRAM_API_ID", APIHashEnv: "TELEGRAM_API_HASH"}}
		require.NoError(t, NewValidator(cfg).validateTelegram())
	})
}

func TestValidateLLM(t *testing.T) {
	tests := []struct {
		name    string
		llm     *LLMConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil llm",
			llm:     nil,
			wantErr: true,
			errMsg:  "llm configuration is nil",
		},
		{
			name:    "missing api_url",
			llm:     &LLMConfig{Model: "m", MaxTokens: 10, Timeout: time.Second},
			wantErr: true,
			errMsg:  "api_url",
		},
		{
			name:    "missing model",
			llm:     &LLMConfig{APIURL: "https://x", MaxTokens: 10, Timeout: time.Second},
			wantErr: true,
			errMsg:  "model",
		},
		{
			name:    "zero max tokens",
			llm:     &LLMConfig{APIURL: "https://x", Model: "m", MaxTokens: 0, Timeout: time.Second},
			wantErr: true,
			errMsg:  "max_tokens",
		},
		{
			name:    "zero timeout",
			llm:     &LLMConfig{APIURL: "https://x", Model: "m", MaxTokens: 10, Timeout: 0},
			wantErr: true,
			errMsg:  "timeout",
		},
		{
			name:    "valid",
			llm:     &LLMConfig{APIURL: "https://x", Model: "m", MaxTokens: 10, Timeout: time.Second},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator(&Config{LLM: tt.llm}).validateLLM()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	t.Run("nil filter", func(t *testing.T) {
		err := NewValidator(&Config{}).validateFilter()
		require.Error(t, err)
	})

	t.Run("negative min chars", func(t *testing.T) {
		f := DefaultFilterConfig()
		f.MinChars = -1
		err := NewValidator(&Config{Filter: f}).validateFilter()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min_chars")
	})

	t.Run("zero compilation threshold", func(t *testing.T) {
		f := DefaultFilterConfig()
		f.CompilationThreshold = 0
		err := NewValidator(&Config{Filter: f}).validateFilter()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compilation_threshold")
	})

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, NewValidator(&Config{Filter: DefaultFilterConfig()}).validateFilter())
	})
}

func TestValidateEnrichment(t *testing.T) {
	t.Run("geocoding enabled without url", func(t *testing.T) {
		e := DefaultEnrichmentConfig()
		e.GeocodingURL = ""
		err := NewValidator(&Config{Enrichment: e}).validateEnrichment()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "geocoding_url")
	})

	t.Run("duplicate window too small", func(t *testing.T) {
		e := DefaultEnrichmentConfig()
		e.DuplicateWindowMinutes = 0
		err := NewValidator(&Config{Enrichment: e}).validateEnrichment()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate_window_minutes")
	})

	t.Run("confidence threshold out of range", func(t *testing.T) {
		e := DefaultEnrichmentConfig()
		e.DuplicateConfidenceThreshold = 1.5
		err := NewValidator(&Config{Enrichment: e}).validateEnrichment()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate_confidence_threshold")
	})

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, NewValidator(&Config{Enrichment: DefaultEnrichmentConfig()}).validateEnrichment())
	})
}

func TestValidateDelivery(t *testing.T) {
	t.Run("broadcast enabled without chat id", func(t *testing.T) {
		cfg := &Config{
			Telegram: &TelegramConfig{},
			Delivery: &DeliveryConfig{BroadcastEnabled: true, JSONLSinkPath: "./x.jsonl"},
		}
		err := NewValidator(cfg).validateDelivery()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broadcast_chat_id")
	})

	t.Run("dms enabled without matcher url", func(t *testing.T) {
		cfg := &Config{
			Telegram: &TelegramConfig{},
			Delivery: &DeliveryConfig{DMsEnabled: true, MinMatchScore: 0.5, DMRateLimitPerS: 1, JSONLSinkPath: "./x.jsonl"},
		}
		err := NewValidator(cfg).validateDelivery()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "matcher_url")
	})

	t.Run("valid delivery config", func(t *testing.T) {
		cfg := &Config{
			Telegram: &TelegramConfig{BroadcastChatID: 1},
			Delivery: &DeliveryConfig{
				BroadcastEnabled: true,
				DMsEnabled:       true,
				MatcherURL:       "https://matcher.internal",
				MinMatchScore:    0.6,
				DMRateLimitPerS:  5,
				JSONLSinkPath:    "./data/delivery-failures.jsonl",
			},
		}
		require.NoError(t, NewValidator(cfg).validateDelivery())
	})
}
