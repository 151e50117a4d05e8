package llmextract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_FallsBackToGeneralExampleSetWhenDirEmpty(t *testing.T) {
	builder, err := NewPromptBuilder("", "")
	require.NoError(t, err)

	out := builder.Build("some-channel", "Sec 3 A Math tutor needed")
	assert.Contains(t, out.userPrompt, "Sec 3 A Math tutor needed")
	assert.Equal(t, "general:empty", out.exampleSetSig)
}

func TestPromptBuilder_PrefersChannelSpecificExampleSetOverGeneral(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general.md"), []byte("### post\ngeneral example\n### json\n{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme-agency.md"), []byte("### post\nacme example\n### json\n{}"), 0o644))

	builder, err := NewPromptBuilder("", dir)
	require.NoError(t, err)

	out := builder.Build("acme-agency", "raw post text")
	assert.Contains(t, out.userPrompt, "acme example")
	assert.NotContains(t, out.userPrompt, "general example")
}

func TestPromptBuilder_FallsBackToGeneralFileWhenChannelFileMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general.md"), []byte("### post\ngeneral example\n### json\n{}"), 0o644))

	builder, err := NewPromptBuilder("", dir)
	require.NoError(t, err)

	out := builder.Build("unknown-channel", "raw post text")
	assert.Contains(t, out.userPrompt, "general example")
}

func TestPromptBuilder_CachesExampleSetAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "general.md")
	require.NoError(t, os.WriteFile(path, []byte("### post\nfirst version\n### json\n{}"), 0o644))

	builder, err := NewPromptBuilder("", dir)
	require.NoError(t, err)

	first := builder.Build("", "post one")
	require.NoError(t, os.WriteFile(path, []byte("### post\nsecond version\n### json\n{}"), 0o644))
	second := builder.Build("", "post two")

	assert.Equal(t, first.exampleSetSig, second.exampleSetSig)
}

func TestPromptBuilder_LoadsCustomSystemPromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom system prompt"), 0o644))

	builder, err := NewPromptBuilder(path, "")
	require.NoError(t, err)

	out := builder.Build("", "post")
	assert.Equal(t, "custom system prompt", out.systemPrompt)
}

func TestPromptBuilder_MissingSystemPromptFileErrors(t *testing.T) {
	_, err := NewPromptBuilder("/nonexistent/path/system.txt", "")
	assert.Error(t, err)
}
