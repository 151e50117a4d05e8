package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load tutordex.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Apply built-in defaults for any unset sub-sections
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"pipeline_version", cfg.PipelineVersion,
		"channels", len(cfg.Channels))

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	cfg, err := loader.loadYAMLConfig()
	if err != nil {
		return nil, NewLoadError("tutordex.yaml", err)
	}
	cfg.configDir = configDir

	// Fill zero-valued fields on the user config with built-in defaults;
	// fields the user set are left untouched.
	if cfg.LLM == nil {
		cfg.LLM = DefaultLLMConfig()
	} else if err := mergo.Merge(cfg.LLM, DefaultLLMConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge llm config defaults: %w", err)
	}

	if cfg.Queue == nil {
		cfg.Queue = DefaultQueueConfig()
	} else if err := mergo.Merge(cfg.Queue, DefaultQueueConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge queue config defaults: %w", err)
	}

	if cfg.Filter == nil {
		cfg.Filter = DefaultFilterConfig()
	} else if err := mergo.Merge(cfg.Filter, DefaultFilterConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge filter config defaults: %w", err)
	}

	if cfg.Enrichment == nil {
		cfg.Enrichment = DefaultEnrichmentConfig()
	} else if err := mergo.Merge(cfg.Enrichment, DefaultEnrichmentConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge enrichment config defaults: %w", err)
	}

	if cfg.Delivery == nil {
		cfg.Delivery = DefaultDeliveryConfig()
	} else if err := mergo.Merge(cfg.Delivery, DefaultDeliveryConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge delivery config defaults: %w", err)
	}

	if cfg.Telegram == nil {
		cfg.Telegram = &TelegramConfig{}
	}
	if cfg.Telegram.APIIDEnv == "" {
		cfg.Telegram.APIIDEnv = "TELEGRAM_API_ID"
	}
	if cfg.Telegram.APIHashEnv == "" {
		cfg.Telegram.APIHashEnv = "TELEGRAM_API_HASH"
	}
	if cfg.Telegram.SessionDir == "" {
		cfg.Telegram.SessionDir = "./data/telegram-session"
	}
	if cfg.Telegram.BotTokenEnv == "" {
		cfg.Telegram.BotTokenEnv = "TELEGRAM_BOT_TOKEN"
	}

	return cfg, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Note: ExpandEnv has no error path: text without a $ passes through
	// unchanged, leaving the YAML parser to handle the content (or fail
	// with a clearer error message).
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadYAMLConfig() (*Config, error) {
	var cfg Config
	if err := l.loadYAML("tutordex.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
