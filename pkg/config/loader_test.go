package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfigDir(t *testing.T) string {
	dir := t.TempDir()

	yamlContent := `
pipeline_version: "v1"
channels:
  - channel_id: 1001
    username: "sgtutors"
telegram:
  broadcast_chat_id: 2002
llm:
  api_url: "https://llm.internal/v1"
  model: "test-model"
delivery:
  matcher_url: "https://matcher.internal"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tutordex.yaml"), []byte(yamlContent), 0644))
	return dir
}

func TestInitialize(t *testing.T) {
	configDir := setupTestConfigDir(t)

	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "test-hash")
	t.Setenv("LLM_API_KEY", "test-llm-key")

	ctx := context.Background()
	cfg, err := Initialize(ctx, configDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "v1", cfg.PipelineVersion)
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, int64(1001), cfg.Channels[0].ChannelID)

	// Built-in defaults fill unset sub-fields.
	assert.Equal(t, 5, cfg.Queue.Workers)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
}

func TestInitializeConfigNotFound(t *testing.T) {
	ctx := context.Background()
	_, err := Initialize(ctx, "/nonexistent/directory")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeInvalidYAML(t *testing.T) {
	configDir := t.TempDir()

	err := os.WriteFile(filepath.Join(configDir, "tutordex.yaml"), []byte(`{{{`), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeValidationFailure(t *testing.T) {
	configDir := t.TempDir()

	// No channels: must fail channel validation.
	invalidConfig := `
pipeline_version: "v1"
llm:
  api_url: "https://llm.internal/v1"
  model: "test-model"
`
	err := os.WriteFile(filepath.Join(configDir, "tutordex.yaml"), []byte(invalidConfig), 0644)
	require.NoError(t, err)

	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "test-hash")

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadYAMLConfig(t *testing.T) {
	configDir := t.TempDir()

	yamlContent := `
pipeline_version: "v2"
channels:
  - channel_id: 42
    username: "tutors-sg"
llm:
  api_url: "https://llm.internal/v1"
  model: "custom-model"
  max_tokens: 2048
`
	err := os.WriteFile(filepath.Join(configDir, "tutordex.yaml"), []byte(yamlContent), 0644)
	require.NoError(t, err)

	loader := &configLoader{configDir: configDir}
	cfg, err := loader.loadYAMLConfig()

	require.NoError(t, err)
	assert.Equal(t, "v2", cfg.PipelineVersion)
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, int64(42), cfg.Channels[0].ChannelID)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
}

func TestEnvironmentVariableInterpolationInConfig(t *testing.T) {
	configDir := t.TempDir()

	yamlContent := `
pipeline_version: "v1"
channels:
  - channel_id: 1
    username: "c1"
llm:
  api_url: "${TEST_LLM_URL}"
  model: "test-model"
delivery:
  matcher_url: "https://matcher.internal"
`
	err := os.WriteFile(filepath.Join(configDir, "tutordex.yaml"), []byte(yamlContent), 0644)
	require.NoError(t, err)

	t.Setenv("TEST_LLM_URL", "https://expanded.example.com/v1")
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "test-hash")
	t.Setenv("LLM_API_KEY", "test-llm-key")

	ctx := context.Background()
	cfg, err := Initialize(ctx, configDir)

	require.NoError(t, err)
	assert.Equal(t, "https://expanded.example.com/v1", cfg.LLM.APIURL)
}

// TestLoadYAMLWithMalformedTemplates verifies that loadYAML properly handles
// values containing literal ${...}-like text that doesn't match any set
// environment variable: os.ExpandEnv substitutes an empty string for a
// name that is not set, so this documents that behavior.
func TestLoadYAMLWithMalformedTemplates(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.yaml")

	yamlContent := `
pipeline_version: "v1${TUTORDEX_TEST_UNSET_VAR}"
channels:
  - channel_id: 1
    username: "c1"
`
	require.NoError(t, os.WriteFile(testFile, []byte(yamlContent), 0644))

	loader := &configLoader{configDir: dir}
	var result Config
	err := loader.loadYAML("test.yaml", &result)

	require.NoError(t, err)
	assert.Equal(t, "v1", result.PipelineVersion)
}

func TestQueueConfigMerging(t *testing.T) {
	tests := []struct {
		name          string
		queueYAML     string
		expectWorkers int
	}{
		{
			name:          "nil queue config uses all defaults",
			queueYAML:     "",
			expectWorkers: 5,
		},
		{
			name: "partial queue config merges with defaults",
			queueYAML: `
queue:
  workers: 10`,
			expectWorkers: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configDir := t.TempDir()

			yamlContent := `
pipeline_version: "v1"
channels:
  - channel_id: 1
    username: "c1"
llm:
  api_url: "https://llm.internal/v1"
  model: "test-model"
delivery:
  matcher_url: "https://matcher.internal"
` + tt.queueYAML

			err := os.WriteFile(filepath.Join(configDir, "tutordex.yaml"), []byte(yamlContent), 0644)
			require.NoError(t, err)

			t.Setenv("TELEGRAM_API_ID", "12345")
			t.Setenv("TELEGRAM_API_HASH", "test-hash")
			t.Setenv("LLM_API_KEY", "test-llm-key")

			ctx := context.Background()
			cfg, err := Initialize(ctx, configDir)

			require.NoError(t, err)
			require.NotNil(t, cfg.Queue)
			assert.Equal(t, tt.expectWorkers, cfg.Queue.Workers)
		})
	}
}

func TestLoadFillsTelegramDefaults(t *testing.T) {
	configDir := setupTestConfigDir(t)

	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "test-hash")

	cfg, err := load(context.Background(), configDir)
	require.NoError(t, err)

	assert.Equal(t, "TELEGRAM_API_ID", cfg.Telegram.APIIDEnv)
	assert.Equal(t, "TELEGRAM_API_HASH", cfg.Telegram.APIHashEnv)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN", cfg.Telegram.BotTokenEnv)
	assert.NotEmpty(t, cfg.Telegram.SessionDir)
}
