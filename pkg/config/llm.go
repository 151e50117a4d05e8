package config

import "time"

// LLMConfig configures the remote, OpenAI-compatible extraction endpoint
// (spec §4.5, §6 "llm_api_url, llm_model, llm_timeout_ms, llm_max_tokens").
type LLMConfig struct {
	// APIURL is the base URL, version path included (e.g. ".../v1");
	// requests go to {APIURL}/chat/completions.
	APIURL string `yaml:"api_url" validate:"required"`

	// APIKeyEnv names the environment variable holding the bearer token.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	Model       string  `yaml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" validate:"required,min=1"`

	Timeout time.Duration `yaml:"timeout"`

	// CircuitThreshold is the number of consecutive failures that trips the breaker.
	CircuitThreshold uint32 `yaml:"circuit_threshold"`

	// CircuitCooldown is how long the breaker stays open before half-open probing.
	CircuitCooldown time.Duration `yaml:"circuit_cooldown_s"`

	// SystemPromptPath optionally points at a file; empty uses the built-in default.
	SystemPromptPath string `yaml:"system_prompt_path,omitempty"`

	// ExampleSetDir holds per-channel/agency few-shot example files, with a
	// "general" fallback set (spec §4.5).
	ExampleSetDir string `yaml:"example_set_dir,omitempty"`
}

// DefaultLLMConfig returns the built-in LLM client defaults.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		APIKeyEnv:        "LLM_API_KEY",
		Model:            "gpt-4o-mini",
		Temperature:      0.1,
		MaxTokens:        1024,
		Timeout:          30 * time.Second,
		CircuitThreshold: 6,
		CircuitCooldown:  2 * time.Minute,
	}
}
