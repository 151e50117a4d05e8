// Package config loads and validates the pipeline's typed configuration
// tree: the recognized option surface from spec §6 plus the ambient
// infrastructure knobs (database, admin HTTP) every component needs.
package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through the collector, queue, and extraction worker.
type Config struct {
	configDir string

	// PipelineVersion is stamped on every job; changing it forces the
	// queue to reprocess historical raw rows (spec §6, GLOSSARY).
	PipelineVersion string `yaml:"pipeline_version" validate:"required"`

	// Channels is the tail/backfill scope.
	Channels []ChannelConfig `yaml:"channels"`

	Telegram   *TelegramConfig   `yaml:"telegram"`
	LLM        *LLMConfig        `yaml:"llm"`
	Queue      *QueueConfig      `yaml:"queue"`
	Filter     *FilterConfig     `yaml:"filter"`
	Enrichment *EnrichmentConfig `yaml:"enrichment"`
	Delivery   *DeliveryConfig   `yaml:"delivery"`
}

// ChannelConfig names one Telegram source channel and, optionally, the
// agency registry key used to select a dedicated few-shot example set
// for the LLM extractor (spec §4.5).
type ChannelConfig struct {
	ChannelID      int64  `yaml:"channel_id" validate:"required"`
	Username       string `yaml:"username,omitempty"`
	AgencyRegistry string `yaml:"agency_registry,omitempty"`
	BlocklistRegex string `yaml:"blocklist_regex,omitempty"`
}

// TelegramConfig holds credentials for the two Telegram collaborators used
// by this pipeline: an MTProto user session for tailing/backfilling
// channels (pkg/telegram, gotd/td) and a Bot API token for outbound
// broadcast/DM sends (pkg/delivery).
type TelegramConfig struct {
	APIIDEnv        string `yaml:"api_id_env,omitempty"`
	APIHashEnv      string `yaml:"api_hash_env,omitempty"`
	SessionDir      string `yaml:"session_dir,omitempty"`
	BotTokenEnv     string `yaml:"bot_token_env,omitempty"`
	BroadcastChatID int64  `yaml:"broadcast_chat_id,omitempty"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
